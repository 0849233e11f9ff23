package llm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepilot/backend/internal/llm"
	"notepilot/backend/internal/model"
)

// newSSEServer builds a test server that replies to any request with the
// given pre-baked SSE lines.
func newSSEServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
}

// collect runs a full stream against the transport and gathers every event
// until the channel closes.
func collect(t *testing.T, transport llm.Transport, req *llm.ChatRequest) []llm.StreamEvent {
	t.Helper()
	ch := make(chan llm.StreamEvent)
	go func() {
		_ = transport.ChatStream(context.Background(), req, ch)
	}()
	var events []llm.StreamEvent
	for event := range ch {
		events = append(events, event)
	}
	return events
}

func userRequest(content string) *llm.ChatRequest {
	return &llm.ChatRequest{Messages: []model.ChatMessage{{Role: model.RoleUser, Content: content}}}
}

// TestOpenAITransport_StreamsContentAndReasoning verifies that content and
// reasoning_content deltas are decoded in order and that the stream ends
// with exactly one Done event.
func TestOpenAITransport_StreamsContentAndReasoning(t *testing.T) {
	server := newSSEServer(t, []string{
		`data: {"choices":[{"delta":{"reasoning_content":"thinking..."}}]}`,
		`data: {"choices":[{"delta":{"content":"4"}}]}`,
		`data: {"choices":[{"delta":{"content":"2"}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	transport := llm.NewOpenAITransport(llm.Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	events := collect(t, transport, userRequest("what is the answer?"))

	require.Len(t, events, 4)
	assert.Equal(t, "thinking...", events[0].Reasoning)
	assert.Equal(t, "4", events[1].Content)
	assert.Equal(t, "2", events[2].Content)
	assert.True(t, events[3].Done)
	assert.Empty(t, events[3].ToolCalls)
}

// TestOpenAITransport_AssemblesToolCallFragments verifies that tool-call
// fragments spread across several events are reassembled by index, with
// argument text concatenated, and delivered on the final event.
func TestOpenAITransport_AssemblesToolCallFragments(t *testing.T) {
	server := newSSEServer(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"read_file","arguments":""}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"file_path\":"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"notes/a.md\"}"}}]}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	transport := llm.NewOpenAITransport(llm.Config{BaseURL: server.URL, APIKey: "test-key"})
	events := collect(t, transport, userRequest("read my note"))

	require.Len(t, events, 1)
	require.True(t, events[0].Done)
	require.Len(t, events[0].ToolCalls, 1)

	call := events[0].ToolCalls[0]
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "function", call.Type)
	assert.Equal(t, "read_file", call.Function.Name)
	assert.JSONEq(t, `{"file_path":"notes/a.md"}`, call.Function.Arguments)
}

// TestOpenAITransport_SkipsMalformedEvents verifies that one undecodable
// event does not abort the rest of the stream.
func TestOpenAITransport_SkipsMalformedEvents(t *testing.T) {
	server := newSSEServer(t, []string{
		`data: {"choices":[{"delta":{"content":"before"}}]}`,
		`data: {not valid json`,
		`data: {"choices":[{"delta":{"content":"after"}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	transport := llm.NewOpenAITransport(llm.Config{BaseURL: server.URL, APIKey: "test-key"})
	events := collect(t, transport, userRequest("hello"))

	require.Len(t, events, 3)
	assert.Equal(t, "before", events[0].Content)
	assert.Equal(t, "after", events[1].Content)
	assert.True(t, events[2].Done)
}

// TestOpenAITransport_APIErrorStatus verifies that a non-200 response
// becomes a single terminal error event instead of a panic or silence.
func TestOpenAITransport_APIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	transport := llm.NewOpenAITransport(llm.Config{BaseURL: server.URL, APIKey: "test-key"})
	events := collect(t, transport, userRequest("hello"))

	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "404")
}

// TestOpenAITransport_MissingAPIKey verifies the transport fails fast with
// a clear terminal error before any network traffic.
func TestOpenAITransport_MissingAPIKey(t *testing.T) {
	transport := llm.NewOpenAITransport(llm.Config{BaseURL: "http://127.0.0.1:1"})
	events := collect(t, transport, userRequest("hello"))

	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "API key")
}

// TestOpenAITransport_EmptyHistory verifies that an empty message list is
// rejected as a terminal error.
func TestOpenAITransport_EmptyHistory(t *testing.T) {
	transport := llm.NewOpenAITransport(llm.Config{BaseURL: "http://127.0.0.1:1", APIKey: "test-key"})
	events := collect(t, transport, &llm.ChatRequest{})

	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "empty")
}
