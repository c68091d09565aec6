package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wientjes/nanoclaw/history"
	"github.com/wientjes/nanoclaw/llm"
	"github.com/wientjes/nanoclaw/search"
)

type scriptedClient struct {
	responses []llm.Response
	errs      []error
	requests  []llm.Request
}

func (c *scriptedClient) Messages(_ context.Context, req llm.Request) (llm.Response, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return llm.Response{}, c.errs[i]
	}
	if i >= len(c.responses) {
		return llm.Response{}, fmt.Errorf("unexpected call %d", i)
	}
	return c.responses[i], nil
}

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, query string) ([]search.Result, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func textResponse(text string) llm.Response {
	return llm.Response{
		StopReason: llm.StopReasonEndTurn,
		Content:    []llm.ContentBlock{{Type: llm.BlockText, Text: text}},
	}
}

func toolUseResponse(id, query string) llm.Response {
	return llm.Response{
		StopReason: llm.StopReasonToolUse,
		Content: []llm.ContentBlock{
			{Type: llm.BlockText, Text: "Let me look that up."},
			{Type: llm.BlockToolUse, ID: id, Name: "brave_search", Input: map[string]any{"query": query}},
		},
	}
}

func newTestGenerator(t *testing.T, client llm.Client, searcher Searcher) (*Generator, *history.Store) {
	t.Helper()
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"), history.DefaultCap)
	g := NewGenerator(client, hist, searcher, GeneratorConfig{
		Model:      "claude-opus-4-20250514",
		PersonaDir: t.TempDir(),
	}, slog.Default())
	return g, hist
}

func TestReplyGreetingAppendsExchange(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []llm.Response{textResponse("Hey Greg! 🌅")}}
	g, hist := newTestGenerator(t, client, &fakeSearcher{})

	got, err := g.Reply(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "Hey Greg! 🌅" {
		t.Fatalf("Reply() = %q", got)
	}
	if len(client.requests) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.requests))
	}

	entries := hist.Load(1)
	if len(entries) != 1 || entries[0].User != "hi" || entries[0].Assistant != got {
		t.Fatalf("history = %+v", entries)
	}
	if entries[0].Timestamp == 0 {
		t.Fatal("exchange timestamp not set")
	}
}

func TestReplyToolUsePath(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []llm.Response{
		toolUseResponse("tu_1", "weather in Lisbon"),
		textResponse("Around 24°C and sunny in Lisbon today."),
	}}
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Lisbon Weather", Description: "24C sunny", URL: "https://wx.example/lisbon"},
		{Title: "Forecast", Description: "clear", URL: "https://wx.example/forecast"},
		{Title: "Climate", Description: "warm", URL: "https://wx.example/climate"},
	}}
	g, hist := newTestGenerator(t, client, searcher)

	got, err := g.Reply(context.Background(), "what's the weather in Lisbon today")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "Around 24°C and sunny in Lisbon today." {
		t.Fatalf("Reply() = %q", got)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "weather in Lisbon" {
		t.Fatalf("searcher queries = %v", searcher.queries)
	}
	if len(client.requests) != 2 {
		t.Fatalf("model calls = %d, want 2", len(client.requests))
	}

	// The follow-up request carries the tool-requesting assistant message
	// followed by the correlated tool result.
	followUp := client.requests[1].Messages
	last := followUp[len(followUp)-1]
	prev := followUp[len(followUp)-2]
	if prev.Role != llm.RoleAssistant {
		t.Fatalf("message before tool result has role %q", prev.Role)
	}
	if last.Role != llm.RoleUser || len(last.Content) != 1 {
		t.Fatalf("tool result message = %+v", last)
	}
	result := last.Content[0]
	if result.Type != llm.BlockToolResult || result.ToolUseID != "tu_1" || result.IsError {
		t.Fatalf("tool result block = %+v", result)
	}
	if !strings.Contains(result.Content, "1. Lisbon Weather") || !strings.Contains(result.Content, "URL: https://wx.example/lisbon") {
		t.Fatalf("formatted results = %q", result.Content)
	}

	if entries := hist.Load(0); len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
}

func TestReplySearchFailureFeedsErrorToModel(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []llm.Response{
		toolUseResponse("tu_9", "latest news"),
		textResponse("I couldn't search right now, but here's what I know."),
	}}
	searcher := &fakeSearcher{err: search.ErrNotConfigured}
	g, hist := newTestGenerator(t, client, searcher)

	got, err := g.Reply(context.Background(), "any news?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got == "" {
		t.Fatal("Reply() returned empty text")
	}

	last := client.requests[1].Messages[len(client.requests[1].Messages)-1].Content[0]
	if !last.IsError {
		t.Fatal("tool result not marked as error")
	}
	if last.ToolUseID != "tu_9" {
		t.Fatalf("tool result correlation = %q", last.ToolUseID)
	}
	if !strings.Contains(last.Content, "not configured") {
		t.Fatalf("tool error content = %q", last.Content)
	}

	if entries := hist.Load(0); len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1 (turn must still be recorded)", len(entries))
	}
}

func TestReplyEmptyResultSetStillProceeds(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []llm.Response{
		toolUseResponse("tu_2", "obscure thing"),
		textResponse("Nothing solid came up, sorry."),
	}}
	g, _ := newTestGenerator(t, client, &fakeSearcher{})

	got, err := g.Reply(context.Background(), "find the obscure thing")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "Nothing solid came up, sorry." {
		t.Fatalf("Reply() = %q", got)
	}
	block := client.requests[1].Messages[len(client.requests[1].Messages)-1].Content[0]
	if block.IsError {
		t.Fatal("empty result set must not be an error")
	}
}

func TestReplyHistoryWindowFlattened(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []llm.Response{textResponse("ok")}}
	g, hist := newTestGenerator(t, client, &fakeSearcher{})
	for i := 0; i < 12; i++ {
		if err := hist.Append(history.NewExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := g.Reply(context.Background(), "latest"); err != nil {
		t.Fatal(err)
	}
	msgs := client.requests[0].Messages
	// 10 windowed exchanges expand to 20 turns, plus the new user turn.
	if len(msgs) != 21 {
		t.Fatalf("len(messages) = %d, want 21", len(msgs))
	}
	if msgs[0].Content[0].Text != "q2" {
		t.Fatalf("window start = %q, want q2", msgs[0].Content[0].Text)
	}
	if msgs[1].Role != llm.RoleAssistant || msgs[1].Content[0].Text != "a2" {
		t.Fatalf("second message = %+v", msgs[1])
	}
	if msgs[20].Content[0].Text != "latest" {
		t.Fatalf("final message = %+v", msgs[20])
	}
}

func TestReplyModelErrorPropagates(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{errs: []error{errors.New("anthropic http 529: overloaded")}}
	g, hist := newTestGenerator(t, client, &fakeSearcher{})

	_, err := g.Reply(context.Background(), "hi")
	if err == nil {
		t.Fatal("Reply() error = nil")
	}
	if entries := hist.Load(0); len(entries) != 0 {
		t.Fatalf("failed turn must not be recorded, got %+v", entries)
	}
}

func TestPipelineDegradesModelFailure(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{errs: []error{errors.New("connection refused")}}
	g, _ := newTestGenerator(t, client, &fakeSearcher{})
	p := NewPipeline(g, slog.Default())

	got := p.Respond(context.Background(), "hi")
	if got == "" {
		t.Fatal("Respond() returned empty text")
	}
	if !strings.Contains(got, "connection refused") {
		t.Fatalf("degraded reply must embed the error, got %q", got)
	}
}

func TestRulesReplies(t *testing.T) {
	t.Parallel()

	r := NewRules()
	cases := []struct {
		in   string
		want string
	}{
		{"hi", "Hey Greg! 🌅 What's on your mind?"},
		{"hello there", "Hey Greg! 🌅 What's on your mind?"},
		{"how are you doing", "I'm here and ready to help! What can I do for you? 🌅"},
		{"thanks a lot", "Anytime! That's what I'm here for. 🌅"},
	}
	for _, tc := range cases {
		got, err := r.Reply(context.Background(), tc.in)
		if err != nil {
			t.Fatalf("Reply(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Reply(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	got, err := r.Reply(context.Background(), "something unusual")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "something unusual") {
		t.Fatalf("default reply must echo the input, got %q", got)
	}
}
