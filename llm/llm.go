// Package llm defines the provider-neutral contract for one model
// invocation. Content is block-structured so a response can interleave plain
// text with tool-use requests, and a request can carry tool results back.
package llm

import (
	"context"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"

	StopReasonToolUse = "tool_use"
	StopReasonEndTurn = "end_turn"
)

type ContentBlock struct {
	Type string `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse: the model asks for a tool call. ID correlates the
	// follow-up tool result with this request.
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// BlockToolResult
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text builds a message with a single plain-text block.
func Text(role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

type Response struct {
	StopReason string
	Content    []ContentBlock
	Usage      Usage
	Duration   time.Duration
}

// JoinedText concatenates every text block in order, joined with newlines.
// Non-text blocks are skipped.
func (r Response) JoinedText() string {
	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type == BlockText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// FirstToolUse returns the first tool-use block, if any.
func (r Response) FirstToolUse() (ContentBlock, bool) {
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			return block, true
		}
	}
	return ContentBlock{}, false
}

type Client interface {
	Messages(ctx context.Context, req Request) (Response, error)
}
