package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractWordList(t *testing.T) {
	prompt := `Validate these words and respond with JSON:

["Helsinki", "Kukkala", "Bababpap"]`

	words, err := extractWordList(prompt)
	if err != nil {
		t.Fatalf("extractWordList: %v", err)
	}

	want := []string{"Helsinki", "Kukkala", "Bababpap"}
	if len(words) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(words))
	}
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word[%d]: expected %q, got %q", i, w, words[i])
		}
	}
}

func TestExtractWordList_NoArray(t *testing.T) {
	if _, err := extractWordList("no list here"); err == nil {
		t.Fatal("expected error for prompt without word array")
	}
}

func TestJudge_Allowlist(t *testing.T) {
	s := newServer(map[string]struct{}{"Helsinki": {}})

	if v := s.judge("Helsinki"); !v.IsProperNoun {
		t.Error("Helsinki should be confirmed")
	}
	if v := s.judge("Bababpap"); v.IsProperNoun {
		t.Error("Bababpap should be rejected")
	}
}

func TestJudge_Heuristic(t *testing.T) {
	s := newServer(nil)

	if v := s.judge("Kukkala"); !v.IsProperNoun {
		t.Error("capitalized -la word should be confirmed in heuristic mode")
	}
	if v := s.judge("kukkala"); v.IsProperNoun {
		t.Error("lowercase word should be rejected in heuristic mode")
	}
	if v := s.judge("Koira"); v.IsProperNoun {
		t.Error("capitalized non-la word should be rejected in heuristic mode")
	}
}

func TestHandleChatCompletions(t *testing.T) {
	s := newServer(map[string]struct{}{"Helsinki": {}})

	reqBody, _ := json.Marshal(chatRequest{
		Model: "gpt-4o-mini",
		Messages: []chatMessage{
			{Role: "user", Content: `Validate: ["Helsinki", "Bababpap"]`},
		},
	})

	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(reqBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(resp.Choices))
	}

	var verdicts []verdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &verdicts); err != nil {
		t.Fatalf("unmarshal verdicts: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	if verdicts[0].Word != "Helsinki" || !verdicts[0].IsProperNoun {
		t.Errorf("Helsinki should be confirmed, got %+v", verdicts[0])
	}
	if verdicts[1].Word != "Bababpap" || verdicts[1].IsProperNoun {
		t.Errorf("Bababpap should be rejected, got %+v", verdicts[1])
	}
	if verdicts[0].Explanation == "" {
		t.Error("verdict should carry an explanation")
	}
}

func TestHandleChatCompletions_NoWordList(t *testing.T) {
	s := newServer(nil)

	reqBody, _ := json.Marshal(chatRequest{
		Model:    "gpt-4o-mini",
		Messages: []chatMessage{{Role: "user", Content: "hello"}},
	})

	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(reqBody)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoadAllowlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(path, []byte("Helsinki\n\nTampere\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	words, err := loadAllowlist(path)
	if err != nil {
		t.Fatalf("loadAllowlist: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if _, ok := words["Tampere"]; !ok {
		t.Error("Tampere missing from allowlist")
	}
}
