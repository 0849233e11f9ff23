package llm

import (
	"context"

	"notepilot/backend/internal/model"
)

// StreamEvent is a LOCAL type for the llm package: one decoded increment of
// a model response stream.
//
// Content and Reasoning carry the two recognized delta fields; either, both
// or neither may be set on a given event. ToolCalls is only populated on the
// final event of a stream, after all tool-call fragments have been
// reassembled. Exactly one event with Done or Error set terminates every
// stream.
type StreamEvent struct {
	Content   string
	Reasoning string
	ToolCalls []model.ToolCall
	Done      bool
	Error     string
}

// ChatRequest is the input to a single streaming completion call.
type ChatRequest struct {
	Messages []model.ChatMessage
	Tools    []Tool
}

// Transport defines the interface for a streaming chat-completion backend.
// Implementations must close the channel after sending the terminal event.
type Transport interface {
	ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamEvent) error
}

// Tool describes one callable function in the request payload, shaped the
// way OpenAI-compatible APIs expect it.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the JSON-schema description of a tool's name and arguments.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
