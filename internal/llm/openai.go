package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"notepilot/backend/internal/model"
)

// doneSentinel is the end-of-stream marker used by OpenAI-compatible APIs.
const doneSentinel = "[DONE]"

// Config holds the connection settings for an OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type openAITransport struct {
	client *http.Client
	cfg    Config
}

// NewOpenAITransport creates a Transport that streams completions from any
// OpenAI-compatible /chat/completions endpoint.
func NewOpenAITransport(cfg Config) Transport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &openAITransport{
		client: &http.Client{},
		cfg:    cfg,
	}
}

// Wire types for the request payload. ContextPaths and other local-only
// message fields are deliberately not part of the wire shape.
type wireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []model.ToolCall `json:"tool_calls,omitempty"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []Tool        `json:"tools,omitempty"`
}

// Wire types for decoding stream events.
type deltaToolCall struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content          string          `json:"content"`
			ReasoningContent string          `json:"reasoning_content"`
			ToolCalls        []deltaToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream opens one streaming completion request and decodes the
// line-oriented event stream into StreamEvents. Exactly one terminal event
// (Done or Error) is sent before the channel is closed.
func (t *openAITransport) ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamEvent) error {
	defer close(ch)

	if t.cfg.APIKey == "" {
		ch <- StreamEvent{Error: "copilot API key is not configured"}
		return nil
	}
	if len(req.Messages) == 0 {
		ch <- StreamEvent{Error: "message history is empty"}
		return nil
	}

	payload := wireRequest{
		Model:    t.cfg.Model,
		Messages: toWireMessages(req.Messages),
		Stream:   true,
		Tools:    req.Tools,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		ch <- StreamEvent{Error: fmt.Sprintf("could not marshal request: %v", err)}
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		ch <- StreamEvent{Error: fmt.Sprintf("could not create request: %v", err)}
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		ch <- StreamEvent{Error: fmt.Sprintf("request failed: %v", err)}
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		ch <- StreamEvent{Error: fmt.Sprintf("api returned status %d: %s", resp.StatusCode, string(bodyBytes))}
		return nil
	}

	// Tool calls arrive as fragments spread over many events, keyed by
	// index; they are reassembled here and attached to the final event.
	pending := map[int]*model.ToolCall{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == doneSentinel {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// A single malformed event must not abort the stream.
			slog.Warn("Skipping malformed stream event", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		for _, tc := range delta.ToolCalls {
			accumulateToolCall(pending, tc)
		}

		if delta.Content == "" && delta.ReasoningContent == "" {
			continue
		}
		evt := StreamEvent{Content: delta.Content, Reasoning: delta.ReasoningContent}
		select {
		case ch <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		ch <- StreamEvent{Error: fmt.Sprintf("stream read failed: %v", err)}
		return nil
	}

	ch <- StreamEvent{Done: true, ToolCalls: assembledToolCalls(pending)}
	return nil
}

func toWireMessages(messages []model.ChatMessage) []wireMessage {
	result := make([]wireMessage, len(messages))
	for i, msg := range messages {
		result[i] = wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
			ToolCalls:  msg.ToolCalls,
		}
	}
	return result
}

func accumulateToolCall(pending map[int]*model.ToolCall, tc deltaToolCall) {
	call, ok := pending[tc.Index]
	if !ok {
		call = &model.ToolCall{Type: "function"}
		pending[tc.Index] = call
	}
	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Type != "" {
		call.Type = tc.Type
	}
	if tc.Function.Name != "" {
		call.Function.Name = tc.Function.Name
	}
	call.Function.Arguments += tc.Function.Arguments
}

func assembledToolCalls(pending map[int]*model.ToolCall) []model.ToolCall {
	if len(pending) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(pending))
	for i := range pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]model.ToolCall, 0, len(pending))
	for _, i := range indexes {
		calls = append(calls, *pending[i])
	}
	return calls
}
