package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// properNounPrompt instructs the model to classify each candidate word.
// Candidates arrive already capitalized; a word passes only when it is both
// capitalized and a proper noun in English or Finnish. Explanations are in
// Finnish because the game is played in Finnish.
const properNounPrompt = `Your task is to validate a list of words. For each word in the provided list, determine whether it meets BOTH of the following criteria:

1. Capitalized: the word MUST start with an uppercase letter.
2. Proper noun: the word MUST be a proper noun in either English or Finnish. A proper noun is a name used for an individual person, place, organization, brand, title, month, day, etc. Common nouns (like "table", "house", "juokseminen"), even when capitalized, are not proper nouns unless they are part of a specific name (e.g. the brand "Apple").

Output a single JSON array. Each element must be a JSON object with exactly these keys:
- "word": the original word from the input list (string).
- "is_proper_noun": true if the word meets BOTH criteria, false otherwise (boolean).
- "explanation": a short explanation in Finnish (string). If true, state what the proper noun refers to (e.g. "Ranskan pääkaupunki", "Suomalainen designyritys"). If false, state why it failed (e.g. "Yleisnimi, ei erisnimi", "Ei isolla alkukirjaimella", "Ei tunnistettu sana tai erisnimi").

Example: for the input ["Helsinki", "Table", "bababpap"] the expected output is:
[
  {"word": "Helsinki", "is_proper_noun": true, "explanation": "Suomen pääkaupunki ja väkirikkain kaupunki."},
  {"word": "Table", "is_proper_noun": false, "explanation": "Yleisnimi, ei erisnimi."},
  {"word": "bababpap", "is_proper_noun": false, "explanation": "Ei tunnistettu sana tai erisnimi."}
]

Now validate the following list of words and respond strictly with the JSON array, nothing else:

%s`

// Verdict is the confirmation service's answer for one word.
type Verdict struct {
	Word         string `json:"word"`
	IsProperNoun bool   `json:"is_proper_noun"`
	Explanation  string `json:"explanation"`
}

// Completer is the completion surface the Confirmer needs from a Client.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Confirmer asks the LLM whether candidate words are proper nouns.
type Confirmer struct {
	client Completer
}

// NewConfirmer creates a Confirmer on top of a completion client.
func NewConfirmer(client Completer) *Confirmer {
	return &Confirmer{client: client}
}

// Confirm classifies a batch of distinct, capitalized candidate words in a
// single call. The result maps each word of the service's reply to its
// verdict; input words absent from the reply are simply missing from the
// map and are treated as unresolved by the caller.
func (c *Confirmer) Confirm(ctx context.Context, words []string) (map[string]Verdict, error) {
	if len(words) == 0 {
		return map[string]Verdict{}, nil
	}

	wordList, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("marshal word list: %w", err)
	}

	resp, err := c.client.Complete(ctx, Request{
		Messages: []Message{
			{Role: "user", Content: fmt.Sprintf(properNounPrompt, wordList)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("confirmation request: %w", err)
	}

	raw := ExtractJSONArray(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in confirmation response: %.200s", resp.Content)
	}

	var verdicts []Verdict
	if err := json.Unmarshal([]byte(raw), &verdicts); err != nil {
		return nil, fmt.Errorf("parse confirmation response: %w", err)
	}

	results := make(map[string]Verdict, len(verdicts))
	for _, v := range verdicts {
		results[v.Word] = v
	}
	return results, nil
}
