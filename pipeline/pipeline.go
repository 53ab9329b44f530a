// Package pipeline drives the word validation flow: register each inbound
// word, apply the one-edit rule, consult the dictionary, and either settle
// the word immediately or hand it to the batch scheduler for external
// confirmation.
package pipeline

import (
	"context"
	"log/slog"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Dilaz/sanabotti/metrics"
	"github.com/Dilaz/sanabotti/reaction"
	"github.com/Dilaz/sanabotti/rules"
)

// DefaultRuleTimeout bounds the game-rule check, the only request/response
// call in the flow.
const DefaultRuleTimeout = 5 * time.Second

// Submission is one inbound word delivery.
type Submission struct {
	Text        string `json:"text"`
	SubmitterID uint64 `json:"submitter_id"`
	MessageID   uint64 `json:"message_id"`
}

// GameState is the game-state surface the pipeline drives.
type GameState interface {
	RegisterWord(word string, submitterID, messageID uint64)
	ValidateGameRules(ctx context.Context, word string) (bool, error)
	MarkWordValidity(messageID uint64, valid bool)
	Reset(ctx context.Context) error
}

// Dictionary answers set-membership lookups.
type Dictionary interface {
	Contains(word string) bool
}

// Enqueuer accepts words for asynchronous external confirmation.
type Enqueuer interface {
	Enqueue(word string, messageID uint64)
}

// Pipeline orchestrates validation for inbound words. Words are processed
// in arrival order; per-word failures never propagate to the word source.
type Pipeline struct {
	game        GameState
	dict        Dictionary
	scheduler   Enqueuer
	sink        reaction.Sink
	ruleTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRuleTimeout overrides the rule-check timeout.
func WithRuleTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.ruleTimeout = d
	}
}

// New creates a pipeline over the given collaborators.
func New(game GameState, dict Dictionary, scheduler Enqueuer, sink reaction.Sink, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		game:        game,
		dict:        dict,
		scheduler:   scheduler,
		sink:        sink,
		ruleTimeout: DefaultRuleTimeout,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// HandleWord validates one inbound word. Empty or non-alphabetic tokens are
// silently skipped. A rule-check timeout drops the word with a warning; it
// stays Pending and receives no indication.
func (p *Pipeline) HandleWord(ctx context.Context, sub Submission) {
	word := rules.Normalize(sub.Text)

	if !isPlayable(word) {
		p.logger.Debug("Skipping unplayable token", "text", sub.Text, "message_id", sub.MessageID)
		metrics.WordsProcessed.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	p.logger.Info("Validating word", "word", word, "message_id", sub.MessageID)

	p.game.RegisterWord(word, sub.SubmitterID, sub.MessageID)

	vctx, cancel := context.WithTimeout(ctx, p.ruleTimeout)
	defer cancel()

	accepted, err := p.game.ValidateGameRules(vctx, word)
	if err != nil {
		p.logger.Warn("Game rule check did not complete, dropping word",
			"word", word,
			"message_id", sub.MessageID,
			"error", err)
		metrics.WordsProcessed.WithLabelValues(metrics.ResultTimeout).Inc()
		return
	}

	if !accepted {
		p.logger.Info("Word rejected by game rules", "word", word, "message_id", sub.MessageID)
		metrics.WordsProcessed.WithLabelValues(metrics.ResultRejected).Inc()
		p.sink.Indicate(sub.MessageID, reaction.OutcomeFailure)
		return
	}

	if p.dict.Contains(word) {
		p.logger.Info("Word found in dictionary", "word", word, "message_id", sub.MessageID)
		metrics.WordsProcessed.WithLabelValues(metrics.ResultAccepted).Inc()
		p.game.MarkWordValidity(sub.MessageID, true)
		p.sink.Indicate(sub.MessageID, reaction.OutcomeSuccess)
		return
	}

	// Dictionary miss: hand off for proper-noun confirmation. The service's
	// criteria require a capitalized candidate.
	p.logger.Info("Word not in dictionary, queueing for confirmation",
		"word", word,
		"message_id", sub.MessageID)
	metrics.WordsProcessed.WithLabelValues(metrics.ResultPending).Inc()
	p.sink.Indicate(sub.MessageID, reaction.OutcomePending)
	p.scheduler.Enqueue(capitalize(word), sub.MessageID)
}

// Reset clears the game for a fresh start.
func (p *Pipeline) Reset(ctx context.Context) error {
	return p.game.Reset(ctx)
}

// isPlayable reports whether a normalized token is a playable word: not
// empty, letters only. Numerals or punctuation inside the token make it
// unplayable, not an error.
func isPlayable(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// capitalize uppercases the first rune of a word.
func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
