package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notepilot/backend/internal/llm"
	mock_llm "notepilot/backend/internal/llm/mocks"
	"notepilot/backend/internal/model"
	"notepilot/backend/internal/notes"
	"notepilot/backend/internal/service"
)

// recordingSink captures everything the engine emits during a turn.
type recordingSink struct {
	text     string
	messages []model.ChatMessage
	attached [][]model.ToolCall
}

func (r *recordingSink) AppendDelta(text string) { r.text += text }

func (r *recordingSink) AttachToolCalls(calls []model.ToolCall) {
	r.attached = append(r.attached, calls)
}

func (r *recordingSink) AppendMessage(msg model.ChatMessage) {
	r.messages = append(r.messages, msg)
}

// scriptStream registers one ChatStream expectation that plays the given
// events into the channel and closes it, the way a real transport would.
func scriptStream(transport *mock_llm.MockTransport, events []llm.StreamEvent, inspect func(req *llm.ChatRequest)) *mock.Call {
	return transport.On("ChatStream", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if inspect != nil {
				inspect(args.Get(1).(*llm.ChatRequest))
			}
			ch := args.Get(2).(chan<- llm.StreamEvent)
			for _, event := range events {
				ch <- event
			}
			close(ch)
		}).
		Return(nil).Once()
}

func history(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: model.RoleUser, Content: content}}
}

// TestToolEngine_PlainAnswer verifies the no-tools happy path: streamed
// deltas land in the sink and the turn ends after one round.
func TestToolEngine_PlainAnswer(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)
	scriptStream(transport, []llm.StreamEvent{
		{Content: "The answer"},
		{Content: " is 42."},
		{Done: true},
	}, nil)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}

	err := engine.RunTurn(context.Background(), history("what is the answer?"), notes.NewSnapshot(nil), sink)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", sink.text)
	assert.Empty(t, sink.messages)
	assert.Empty(t, sink.attached)
}

// TestToolEngine_ReasoningIsMarkerWrapped verifies that reasoning deltas
// reach the sink wrapped in thinking markers.
func TestToolEngine_ReasoningIsMarkerWrapped(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)
	scriptStream(transport, []llm.StreamEvent{
		{Reasoning: "thinking..."},
		{Content: "42"},
		{Done: true},
	}, nil)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}

	err := engine.RunTurn(context.Background(), history("answer?"), notes.NewSnapshot(nil), sink)
	require.NoError(t, err)
	assert.Equal(t, "<think>thinking...</think>42", sink.text)
}

// TestToolEngine_ReadFileRoundTrip walks the full tool loop: the model
// requests read_file, the engine resolves it against the snapshot, feeds
// the result back and streams the final answer.
func TestToolEngine_ReadFileRoundTrip(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)

	toolCall := model.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: model.FunctionCall{
			Name:      "read_file",
			Arguments: `{"file_path":"notes/a.md"}`,
		},
	}
	scriptStream(transport, []llm.StreamEvent{
		{Done: true, ToolCalls: []model.ToolCall{toolCall}},
	}, nil)

	var secondRequest *llm.ChatRequest
	scriptStream(transport, []llm.StreamEvent{
		{Content: "The note says: alpha content."},
		{Done: true},
	}, func(req *llm.ChatRequest) { secondRequest = req })

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}
	snap := notes.NewSnapshot(map[string]string{"notes/a.md": "alpha content"})

	err := engine.RunTurn(context.Background(), history("summarize notes/a.md"), snap, sink)
	require.NoError(t, err)

	// Tool calls were attached to the in-progress assistant message.
	require.Len(t, sink.attached, 1)
	assert.Equal(t, "call_1", sink.attached[0][0].ID)

	// The tool result and the next-round placeholder were appended.
	require.Len(t, sink.messages, 2)
	assert.Equal(t, model.RoleTool, sink.messages[0].Role)
	assert.Equal(t, "read_file", sink.messages[0].Name)
	assert.Equal(t, "call_1", sink.messages[0].ToolCallID)
	assert.Equal(t, "alpha content", sink.messages[0].Content)
	assert.Equal(t, model.RoleAssistant, sink.messages[1].Role)

	assert.Equal(t, "The note says: alpha content.", sink.text)

	// The second request carries the assistant tool-call message and the
	// tool result, in that order, after the original user message.
	require.NotNil(t, secondRequest)
	require.Len(t, secondRequest.Messages, 3)
	assert.Equal(t, model.RoleUser, secondRequest.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, secondRequest.Messages[1].Role)
	require.Len(t, secondRequest.Messages[1].ToolCalls, 1)
	assert.Equal(t, model.RoleTool, secondRequest.Messages[2].Role)
	assert.Equal(t, "alpha content", secondRequest.Messages[2].Content)
}

// TestToolEngine_UnknownToolAndBadArgs verifies that unknown tools and
// unreadable arguments degrade to error text fed back to the model instead
// of aborting the turn.
func TestToolEngine_UnknownToolAndBadArgs(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)

	calls := []model.ToolCall{
		{ID: "c1", Type: "function", Function: model.FunctionCall{Name: "write_file", Arguments: `{}`}},
		{ID: "c2", Type: "function", Function: model.FunctionCall{Name: "read_file", Arguments: `not json`}},
		{ID: "c3", Type: "function", Function: model.FunctionCall{Name: "read_file", Arguments: `{"file_path":"missing.md"}`}},
	}
	scriptStream(transport, []llm.StreamEvent{{Done: true, ToolCalls: calls}}, nil)
	scriptStream(transport, []llm.StreamEvent{{Content: "done"}, {Done: true}}, nil)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}

	err := engine.RunTurn(context.Background(), history("go"), notes.NewSnapshot(nil), sink)
	require.NoError(t, err)

	// Three tool results plus the next-round placeholder.
	require.Len(t, sink.messages, 4)
	assert.Contains(t, sink.messages[0].Content, "unknown tool")
	assert.Contains(t, sink.messages[1].Content, "Error")
	assert.Contains(t, sink.messages[2].Content, "not found")
}

// TestToolEngine_RoundCapForcesAnswer verifies that a model stuck in a
// tool-request loop gets cut off with a synthesized final answer.
func TestToolEngine_RoundCapForcesAnswer(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)
	looping := []llm.StreamEvent{{Done: true, ToolCalls: []model.ToolCall{{
		ID:       "loop",
		Type:     "function",
		Function: model.FunctionCall{Name: "list_files", Arguments: `{}`},
	}}}}

	// Exactly eight completions, then the cap forces the answer.
	transport.On("ChatStream", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ch := args.Get(2).(chan<- llm.StreamEvent)
			for _, event := range looping {
				ch <- event
			}
			close(ch)
		}).
		Return(nil).Times(8)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}

	err := engine.RunTurn(context.Background(), history("loop forever"), notes.NewSnapshot(nil), sink)
	require.NoError(t, err)
	assert.Contains(t, sink.text, "tool call limit")
}

// TestToolEngine_TransportErrorAborts verifies that a terminal stream error
// surfaces as the turn's error.
func TestToolEngine_TransportErrorAborts(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)
	scriptStream(transport, []llm.StreamEvent{{Error: "api returned status 500"}}, nil)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}

	err := engine.RunTurn(context.Background(), history("hello"), notes.NewSnapshot(nil), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

// TestToolEngine_ListFiles verifies the list_files handler output through
// a full round trip.
func TestToolEngine_ListFiles(t *testing.T) {
	transport := mock_llm.NewMockTransport(t)
	scriptStream(transport, []llm.StreamEvent{{Done: true, ToolCalls: []model.ToolCall{{
		ID:       "c1",
		Type:     "function",
		Function: model.FunctionCall{Name: "list_files", Arguments: `{}`},
	}}}}, nil)
	scriptStream(transport, []llm.StreamEvent{{Content: "two files"}, {Done: true}}, nil)

	engine := service.NewToolEngine(transport)
	sink := &recordingSink{}
	snap := notes.NewSnapshot(map[string]string{"b.md": "", "a.md": ""})

	err := engine.RunTurn(context.Background(), history("what files exist?"), snap, sink)
	require.NoError(t, err)

	require.NotEmpty(t, sink.messages)
	assert.Equal(t, "a.md\nb.md", sink.messages[0].Content)
}
