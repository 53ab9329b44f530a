package gateway

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Dilaz/sanabotti/reaction"
)

// Indication is the wire form of an outcome indication.
type Indication struct {
	MessageID uint64 `json:"message_id"`
	Outcome   string `json:"outcome"`
}

// ClearPending is the wire form of a pending-indicator removal.
type ClearPending struct {
	MessageID uint64 `json:"message_id"`
}

// Sink publishes outcome indications to NATS for the chat adapter.
// Publish failures are logged and swallowed: indications are advisory and
// must never stall word processing.
type Sink struct {
	nc       *nats.Conn
	subjects Subjects
	logger   *slog.Logger
}

var _ reaction.Sink = (*Sink)(nil)

// NewSink creates a reaction sink over an established NATS connection.
func NewSink(nc *nats.Conn, subjects Subjects, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		nc:       nc,
		subjects: subjects,
		logger:   logger,
	}
}

// Indicate publishes the outcome for a message.
func (s *Sink) Indicate(messageID uint64, outcome reaction.Outcome) {
	s.publish(s.subjects.ReactionsIndicate(), Indication{
		MessageID: messageID,
		Outcome:   outcome.String(),
	})
}

// ClearPendingIndicator publishes a pending-indicator removal.
func (s *Sink) ClearPendingIndicator(messageID uint64) {
	s.publish(s.subjects.ReactionsClearPending(), ClearPending{MessageID: messageID})
}

func (s *Sink) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal indication", "subject", subject, "error", err)
		return
	}
	if err := s.nc.Publish(subject, data); err != nil {
		s.logger.Error("Failed to publish indication", "subject", subject, "error", err)
	}
}
