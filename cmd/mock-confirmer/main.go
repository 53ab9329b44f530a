// Package main implements a mock proper-noun confirmation server for
// development and e2e testing. It serves OpenAI-compatible
// /v1/chat/completions responses, extracting the word list from the prompt
// and answering from a configurable allowlist. This eliminates the need for
// a real LLM, making tests fast, deterministic, and offline-capable.
//
// Usage:
//
//	mock-confirmer -proper-nouns /path/to/names.txt -port 11434
//
// The allowlist file holds one proper noun per line. Words on the list are
// confirmed; everything else is rejected. Without a file, any word whose
// first letter is uppercase and that ends in "la" is confirmed, which is
// enough to exercise both outcomes from a test.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type verdict struct {
	Word         string `json:"word"`
	IsProperNoun bool   `json:"is_proper_noun"`
	Explanation  string `json:"explanation"`
}

// --- Server ---

type server struct {
	properNouns map[string]struct{} // nil means heuristic mode
	calls       atomic.Int64

	// Captured prompts for test verification via /requests.
	requests   []string
	requestsMu sync.Mutex
}

func newServer(properNouns map[string]struct{}) *server {
	return &server{properNouns: properNouns}
}

func main() {
	allowlistPath := flag.String("proper-nouns", "", "file with one accepted proper noun per line")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	var properNouns map[string]struct{}
	if *allowlistPath != "" {
		var err error
		properNouns, err = loadAllowlist(*allowlistPath)
		if err != nil {
			log.Fatalf("Failed to load allowlist from %s: %v", *allowlistPath, err)
		}
		log.Printf("Loaded %d proper noun(s) from %s", len(properNouns), *allowlistPath)
	} else {
		log.Printf("No allowlist given, using heuristic mode")
	}

	s := newServer(properNouns)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock confirmer listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	log.Printf("[call %d] model=%s messages=%d", callNum, req.Model, len(req.Messages))

	prompt := lastUserMessage(req.Messages)
	s.captureRequest(prompt)

	words, err := extractWordList(prompt)
	if err != nil {
		http.Error(w, fmt.Sprintf("no word list in prompt: %v", err), http.StatusBadRequest)
		return
	}

	verdicts := make([]verdict, 0, len(words))
	for _, word := range words {
		verdicts = append(verdicts, s.judge(word))
	}

	content, err := json.Marshal(verdicts)
	if err != nil {
		http.Error(w, fmt.Sprintf("marshal verdicts: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("[call %d] judged %d word(s)", callNum, len(words))

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: string(content),
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(prompt) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(prompt) + len(content)) / 4,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// judge decides one word. With an allowlist, membership decides; otherwise
// a capitalized word ending in "la" passes (Finnish place names often do).
func (s *server) judge(word string) verdict {
	var isProper bool
	if s.properNouns != nil {
		_, isProper = s.properNouns[word]
	} else {
		isProper = isCapitalized(word) && strings.HasSuffix(strings.ToLower(word), "la")
	}

	explanation := fmt.Sprintf("%s ei ole erisnimi.", word)
	if isProper {
		explanation = fmt.Sprintf("%s on erisnimi.", word)
	}

	return verdict{
		Word:         word,
		IsProperNoun: isProper,
		Explanation:  explanation,
	}
}

func (s *server) captureRequest(prompt string) {
	s.requestsMu.Lock()
	defer s.requestsMu.Unlock()
	s.requests = append(s.requests, prompt)
}

// handleStats returns the call count for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls": s.calls.Load(),
	})
}

// handleRequests returns captured prompts for test assertions.
func (s *server) handleRequests(w http.ResponseWriter, _ *http.Request) {
	s.requestsMu.Lock()
	prompts := make([]string, len(s.requests))
	copy(prompts, s.requests)
	s.requestsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"prompts": prompts,
	})
}

func lastUserMessage(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// wordListRe matches the JSON string array embedded in the prompt.
var wordListRe = regexp.MustCompile(`\[\s*"(?:[^"\\]|\\.)*"(?:\s*,\s*"(?:[^"\\]|\\.)*")*\s*\]`)

// extractWordList pulls the candidate word array out of the prompt text.
func extractWordList(prompt string) ([]string, error) {
	match := wordListRe.FindString(prompt)
	if match == "" {
		return nil, fmt.Errorf("no JSON string array found")
	}

	var words []string
	if err := json.Unmarshal([]byte(match), &words); err != nil {
		return nil, fmt.Errorf("parse word array: %w", err)
	}
	return words, nil
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func loadAllowlist(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
