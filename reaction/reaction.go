// Package reaction defines the sink that renders per-word outcomes back to
// players. The core only signals outcomes; how they are displayed (emoji
// reactions on a chat platform) is a collaborator's concern.
package reaction

import "log/slog"

// Outcome is the user-visible verdict signalled for a submitted word.
type Outcome int

// Outcome values.
const (
	// OutcomePending means the word awaits external confirmation.
	OutcomePending Outcome = iota
	// OutcomeSuccess means the word was accepted.
	OutcomeSuccess
	// OutcomeFailure means the word was rejected.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Sink receives outcome indications for submitted words. Implementations
// are fire-and-forget and best-effort; delivery failures are logged, never
// surfaced to the pipeline.
type Sink interface {
	// Indicate signals the outcome for a message.
	Indicate(messageID uint64, outcome Outcome)

	// ClearPendingIndicator removes a previously signalled pending
	// indication once a terminal outcome is known.
	ClearPendingIndicator(messageID uint64)
}

// LogSink writes indications to the log. Used when no chat adapter is
// connected.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Indicate logs the outcome.
func (s *LogSink) Indicate(messageID uint64, outcome Outcome) {
	s.logger.Info("Reaction", "message_id", messageID, "outcome", outcome.String())
}

// ClearPendingIndicator logs the cleared indication.
func (s *LogSink) ClearPendingIndicator(messageID uint64) {
	s.logger.Info("Clearing pending reaction", "message_id", messageID)
}
