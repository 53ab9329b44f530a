// Package gateway bridges the word pipeline to NATS. Inbound submissions
// and reset requests arrive as JSON messages; outcome indications are
// published back for the chat adapter to render.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Dilaz/sanabotti/pipeline"
)

// WordHandler processes inbound submissions and reset requests.
type WordHandler interface {
	HandleWord(ctx context.Context, sub pipeline.Submission)
	Reset(ctx context.Context) error
}

// Gateway subscribes to the inbound subjects and dispatches messages to
// the word handler. Each subscription delivers messages on a single
// goroutine, so words are processed in arrival order.
type Gateway struct {
	nc       *nats.Conn
	subjects Subjects
	handler  WordHandler
	logger   *slog.Logger
	subs     []*nats.Subscription
}

// New creates a gateway over an established NATS connection.
func New(nc *nats.Conn, subjects Subjects, handler WordHandler, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		nc:       nc,
		subjects: subjects,
		handler:  handler,
		logger:   logger,
	}
}

// Start subscribes to the word and reset subjects. Message handlers use
// ctx, so cancelling it abandons in-flight work during shutdown.
func (g *Gateway) Start(ctx context.Context) error {
	wordSub, err := g.nc.Subscribe(g.subjects.WordsSubmitted(), func(msg *nats.Msg) {
		g.handleSubmission(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", g.subjects.WordsSubmitted(), err)
	}
	g.subs = append(g.subs, wordSub)

	resetSub, err := g.nc.Subscribe(g.subjects.GameReset(), func(msg *nats.Msg) {
		g.handleReset(ctx)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", g.subjects.GameReset(), err)
	}
	g.subs = append(g.subs, resetSub)

	g.logger.Info("Gateway started",
		"words_subject", g.subjects.WordsSubmitted(),
		"reset_subject", g.subjects.GameReset())
	return nil
}

// Stop unsubscribes from all subjects.
func (g *Gateway) Stop() error {
	for _, sub := range g.subs {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe from %s: %w", sub.Subject, err)
		}
	}
	g.subs = nil
	return nil
}

func (g *Gateway) handleSubmission(ctx context.Context, msg *nats.Msg) {
	var sub pipeline.Submission
	if err := json.Unmarshal(msg.Data, &sub); err != nil {
		g.logger.Warn("Dropping malformed submission", "subject", msg.Subject, "error", err)
		return
	}
	g.handler.HandleWord(ctx, sub)
}

func (g *Gateway) handleReset(ctx context.Context) {
	if err := g.handler.Reset(ctx); err != nil {
		g.logger.Error("Game reset failed", "error", err)
		return
	}
	g.logger.Info("Game reset")
}
