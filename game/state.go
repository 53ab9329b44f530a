// Package game owns the shared word-chain game state: the short word
// history, the reference words, and the rule engine. All state lives behind
// a single-goroutine mailbox so operations are processed one at a time
// without locks.
package game

import (
	"context"
	"log/slog"

	"github.com/Dilaz/sanabotti/rules"
)

// MaxHistory is the number of word entries retained: the current word and
// the previous one.
const MaxHistory = 2

// Validity is the lifecycle state of a registered word. It transitions from
// Pending to Valid or Invalid exactly once and never reverses.
type Validity int

// Validity values.
const (
	Pending Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "pending"
	}
}

// WordEntry is one submitted word in the history.
type WordEntry struct {
	Word        string
	SubmitterID uint64
	MessageID   uint64
	Validity    Validity
}

// mailboxSize bounds pending operations on the state goroutine.
const mailboxSize = 64

// State processes game-state operations sequentially. Start must be called
// before any operation; operations are totally ordered by arrival.
type State struct {
	ops chan func()

	history []WordEntry
	engine  *rules.Engine

	// lastValidWord is the most recent word confirmed valid by any check.
	// lastRuleWord is the most recent word that passed the one-edit rule,
	// possibly still awaiting dictionary or external confirmation. Rule
	// checks chain off lastRuleWord so the game does not stall while a word
	// is pending.
	lastValidWord string
	lastRuleWord  string

	logger *slog.Logger
}

// NewState creates a game state with an empty history.
func NewState(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		ops:     make(chan func(), mailboxSize),
		history: make([]WordEntry, 0, MaxHistory),
		engine:  rules.NewEngine(),
		logger:  logger,
	}
}

// Start runs the mailbox loop until ctx is cancelled.
func (s *State) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case op := <-s.ops:
				op()
			}
		}
	}()
}

// RegisterWord appends a Pending entry to the history, evicting the oldest
// entry at capacity. Fire-and-forget.
func (s *State) RegisterWord(word string, submitterID, messageID uint64) {
	s.ops <- func() {
		s.logger.Info("Registering word", "word", word, "message_id", messageID)
		s.history = append(s.history, WordEntry{
			Word:        word,
			SubmitterID: submitterID,
			MessageID:   messageID,
			Validity:    Pending,
		})
		if len(s.history) > MaxHistory {
			s.history = s.history[1:]
		}
	}
}

// ValidateGameRules checks the candidate against the one-edit rule, chaining
// off the last rule-accepted word. The first word of a game is accepted
// unconditionally. An expired ctx abandons the request; the state goroutine
// may still apply it, but the reply is discarded.
func (s *State) ValidateGameRules(ctx context.Context, word string) (bool, error) {
	reply := make(chan bool, 1)

	op := func() {
		reply <- s.validateGameRules(word)
	}

	select {
	case s.ops <- op:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case accepted := <-reply:
		return accepted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *State) validateGameRules(word string) bool {
	reference := s.lastRuleWord
	if reference == "" {
		reference = s.lastValidWord
	}

	if reference == "" {
		// First word of the game.
		s.logger.Info("No previous word, accepting first word", "word", word)
		s.lastRuleWord = word
		s.engine.AddWord(word)
		return true
	}

	if err := s.engine.ValidateMove(reference, word); err != nil {
		s.logger.Info("Word rejected by game rules",
			"word", word,
			"reference", reference,
			"reason", err)
		return false
	}

	s.logger.Info("Word follows game rules", "word", word, "reference", reference)
	s.lastRuleWord = word
	return true
}

// MarkWordValidity resolves the Pending entry with the given message ID.
// When valid, the entry's word becomes the last valid word. A no-op when
// the entry has already scrolled out of the history. Fire-and-forget.
func (s *State) MarkWordValidity(messageID uint64, valid bool) {
	s.ops <- func() {
		for i := range s.history {
			if s.history[i].MessageID != messageID {
				continue
			}
			if valid {
				s.history[i].Validity = Valid
				s.logger.Info("Marking word valid",
					"word", s.history[i].Word,
					"message_id", messageID,
					"previous_valid", s.lastValidWord)
				s.lastValidWord = s.history[i].Word
			} else {
				s.history[i].Validity = Invalid
				s.logger.Info("Marking word invalid",
					"word", s.history[i].Word,
					"message_id", messageID)
			}
			return
		}
		s.logger.Info("Word not found in history to mark validity", "message_id", messageID)
	}
}

// LastValidWord returns the most recent confirmed-valid word, if any.
func (s *State) LastValidWord(ctx context.Context) (string, bool, error) {
	reply := make(chan string, 1)

	select {
	case s.ops <- func() { reply <- s.lastValidWord }:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}

	select {
	case word := <-reply:
		return word, word != "", nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// History returns a snapshot of the retained entries, oldest first.
func (s *State) History(ctx context.Context) ([]WordEntry, error) {
	reply := make(chan []WordEntry, 1)

	select {
	case s.ops <- func() {
		snapshot := make([]WordEntry, len(s.history))
		copy(snapshot, s.history)
		reply <- snapshot
	}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case entries := <-reply:
		return entries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reset clears the history, the used-word set, and both reference words.
// Returns once the reset has been applied.
func (s *State) Reset(ctx context.Context) error {
	done := make(chan struct{})

	op := func() {
		s.history = s.history[:0]
		s.engine.Reset()
		s.lastValidWord = ""
		s.lastRuleWord = ""
		s.logger.Info("Game state has been reset")
		close(done)
	}

	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
