package model

import (
	"time"
)

// Message roles. These match the wire format of OpenAI-compatible
// chat-completion APIs, so they can be marshaled into requests as-is.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultSessionTitle is the placeholder a session carries until its first
// real user message produces a better one.
const DefaultSessionTitle = "New Chat"

// ChatMessage is one turn in a conversation.
//
// Assistant messages may interleave "thinking" and "answer" text using the
// markers from the llm package; tool messages carry the producing tool's
// name and the id of the call they answer. ContextPaths records which
// reference documents were injected into a user turn, so the injection never
// has to be re-derived by parsing the rendered content back apart.
type ChatMessage struct {
	Role         string     `json:"role"`
	Content      string     `json:"content"`
	Name         string     `json:"name,omitempty"`
	ToolCallID   string     `json:"tool_call_id,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	ContextPaths []string   `json:"context_paths,omitempty"`
}

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON text exactly as the model produced it; it is parsed (and its
// failures tolerated) only at dispatch time.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and raw argument JSON of a ToolCall.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatSession is one persisted conversation.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Timestamp time.Time     `json:"timestamp"`
	Messages  []ChatMessage `json:"messages"`
}

// FileContext is a reference document attached to a user turn. Content may
// be empty on arrival; it is fetched from the file index before the send.
type FileContext struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

// StreamResponse is the structure for a single chunk in a streaming response
// to the client.
type StreamResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content"`
	Done      bool   `json:"done"`
	Error     string `json:"error,omitempty"`
}
