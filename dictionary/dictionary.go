// Package dictionary provides set-membership lookup against a static word
// list. The list is loaded once from a newline-delimited UTF-8 file; lookups
// are case-insensitive and safe for concurrent use.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// ErrEmpty indicates the word list source yielded zero words.
var ErrEmpty = errors.New("dictionary contains no words")

// Dictionary is an immutable set of normalized words. Reload swaps in a
// freshly loaded set atomically; each loaded set is never mutated.
type Dictionary struct {
	path   string
	words  atomic.Pointer[map[string]struct{}]
	logger *slog.Logger
}

// Load reads the word list at path. Each line is trimmed and lowercased;
// blank lines are skipped. An unreadable or empty source is an error.
func Load(path string, logger *slog.Logger) (*Dictionary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dictionary{path: path, logger: logger}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// New builds a dictionary from an arbitrary reader. Used by tests and by
// callers that embed their word list.
func New(r io.Reader, logger *slog.Logger) (*Dictionary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	words, err := parse(r)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{logger: logger}
	d.words.Store(&words)
	return d, nil
}

// Reload re-reads the backing file and swaps the word set atomically.
// Lookups in flight keep reading the old set.
func (d *Dictionary) Reload() error {
	if d.path == "" {
		return fmt.Errorf("dictionary has no backing file")
	}

	d.logger.Info("Loading dictionary", "path", d.path)

	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open dictionary %s: %w", d.path, err)
	}
	defer f.Close()

	words, err := parse(f)
	if err != nil {
		return fmt.Errorf("load dictionary %s: %w", d.path, err)
	}

	d.words.Store(&words)
	d.logger.Info("Loaded dictionary", "path", d.path, "words", len(words))
	return nil
}

// Contains reports whether the normalized word is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	normalized := strings.ToLower(strings.TrimSpace(word))
	_, ok := (*d.words.Load())[normalized]
	return ok
}

// Len returns the number of words in the current set.
func (d *Dictionary) Len() int {
	return len(*d.words.Load())
}

func parse(r io.Reader) (map[string]struct{}, error) {
	words := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return words, nil
}
