package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneEditApart(t *testing.T) {
	tests := []struct {
		name      string
		previous  string
		candidate string
		want      bool
	}{
		{"one letter changed", "kissa", "kassa", true},
		{"one letter added", "kissa", "kissan", true},
		{"one letter removed", "kissan", "kissa", true},
		{"letter added in front", "issa", "kissa", true},
		{"more than one letter changed", "kissa", "koira", false},
		{"no change", "kissa", "kissa", false},
		{"length differs by more than one", "kissa", "kissoilla", false},
		{"empty to one letter", "", "a", true},
		{"two substitutions", "pää", "puu", false},
		{"accented one edit", "pää", "päät", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, oneEditApart(tt.previous, tt.candidate))
		})
	}
}

func TestOneEditApart_GreedyAlignment(t *testing.T) {
	// The walk skips exactly one character of the longer word at the first
	// mismatch and never backtracks. Suffix and prefix edits always align.
	assert.True(t, oneEditApart("talo", "talot"))
	assert.True(t, oneEditApart("alo", "talo"))
	assert.True(t, oneEditApart("kisa", "kissa"))
}

func TestValidateMove(t *testing.T) {
	e := NewEngine()
	e.AddWord("kissa")

	require.NoError(t, e.ValidateMove("kissa", "kassa"))  // change
	require.NoError(t, e.ValidateMove("kassa", "kassat")) // add
	require.NoError(t, e.ValidateMove("kassat", "assat")) // remove
}

func TestValidateMove_Errors(t *testing.T) {
	e := NewEngine()
	e.AddWord("kissa")

	// Same word resubmitted: rejected as already used.
	err := e.ValidateMove("kissa", "kissa")
	var used *AlreadyUsedError
	require.Error(t, err)
	assert.True(t, errors.As(err, &used))
	assert.Equal(t, "kissa", used.Word)

	// More than one edit.
	err = e.ValidateMove("kissa", "koira")
	var violation *RuleViolation
	require.Error(t, err)
	assert.True(t, errors.As(err, &violation))
	assert.Equal(t, "koira", violation.Word)

	// A word accepted once can never be accepted again.
	require.NoError(t, e.ValidateMove("kissa", "kassa"))
	err = e.ValidateMove("kassat", "kassa")
	assert.True(t, errors.As(err, &used))
}

func TestValidateMove_Normalizes(t *testing.T) {
	e := NewEngine()
	e.AddWord("Kissa")

	require.NoError(t, e.ValidateMove("  KISSA ", "Kassa"))

	err := e.ValidateMove("kissat", "KASSA")
	var used *AlreadyUsedError
	assert.True(t, errors.As(err, &used))
}

func TestEngine_WordCountAndReset(t *testing.T) {
	e := NewEngine()
	e.AddWord("kissa")
	require.NoError(t, e.ValidateMove("kissa", "kassa"))
	require.NoError(t, e.ValidateMove("kassa", "kassat"))

	assert.Equal(t, 3, e.WordCount())

	e.Reset()
	assert.Equal(t, 0, e.WordCount())

	// After reset the same words may be played again.
	e.AddWord("kissa")
	require.NoError(t, e.ValidateMove("kissa", "kassa"))
}
