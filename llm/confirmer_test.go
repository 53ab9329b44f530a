package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	content string
	err     error
	gotReq  Request
}

func (s *stubCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.content}, nil
}

func TestConfirm(t *testing.T) {
	stub := &stubCompleter{content: `[
		{"word": "Helsinki", "is_proper_noun": true, "explanation": "Suomen pääkaupunki."},
		{"word": "Bababpap", "is_proper_noun": false, "explanation": "Ei tunnistettu sana tai erisnimi."}
	]`}

	c := NewConfirmer(stub)
	results, err := c.Confirm(context.Background(), []string{"Helsinki", "Bababpap"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.True(t, results["Helsinki"].IsProperNoun)
	assert.False(t, results["Bababpap"].IsProperNoun)
	assert.Equal(t, "Suomen pääkaupunki.", results["Helsinki"].Explanation)

	// The prompt carries the candidate words as a JSON list.
	require.Len(t, stub.gotReq.Messages, 1)
	assert.Contains(t, stub.gotReq.Messages[0].Content, `["Helsinki","Bababpap"]`)
}

func TestConfirm_EmptyBatch(t *testing.T) {
	stub := &stubCompleter{}
	c := NewConfirmer(stub)

	results, err := c.Confirm(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, stub.gotReq.Messages) // no call issued
}

func TestConfirm_MissingWordsUnresolved(t *testing.T) {
	stub := &stubCompleter{content: `[{"word": "Helsinki", "is_proper_noun": true, "explanation": "ok"}]`}
	c := NewConfirmer(stub)

	results, err := c.Confirm(context.Background(), []string{"Helsinki", "Turku"})
	require.NoError(t, err)

	_, ok := results["Turku"]
	assert.False(t, ok)
}

func TestConfirm_TransportError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}
	c := NewConfirmer(stub)

	_, err := c.Confirm(context.Background(), []string{"Helsinki"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "confirmation request"))
}

func TestConfirm_UnparseableResponse(t *testing.T) {
	stub := &stubCompleter{content: "I'm sorry, I cannot help with that."}
	c := NewConfirmer(stub)

	_, err := c.Confirm(context.Background(), []string{"Helsinki"})
	require.Error(t, err)
}
