package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"notepilot/backend/internal/llm"
	"notepilot/backend/internal/model"
	"notepilot/backend/internal/notes"
)

// maxToolRounds bounds how many tool-call round trips a single turn may
// take before the engine forces a terminal answer. Without a bound, a model
// that keeps requesting tools would loop forever.
const maxToolRounds = 8

// roundLimitAnswer is the synthesized final answer when the round cap is hit.
const roundLimitAnswer = "I was unable to finish answering within the tool call limit. Please try rephrasing your question."

// turnState tracks where the engine is within one conversational turn.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateExecutingTools
	stateDone
	stateFailed
)

// ToolHandler resolves one tool call against a file-index snapshot and
// returns the tool result text.
type ToolHandler func(args json.RawMessage, snap *notes.Snapshot) string

// TurnSink receives the engine's incremental output. AppendDelta appends
// marker-processed text to the trailing assistant message; AttachToolCalls
// records the requested calls on it; AppendMessage adds a tool result or a
// fresh assistant placeholder for the next round.
type TurnSink interface {
	AppendDelta(text string)
	AttachToolCalls(calls []model.ToolCall)
	AppendMessage(msg model.ChatMessage)
}

// ToolEngine drives the model/tool round-trip loop for one turn: it streams
// a completion, resolves any requested tool calls against the snapshot it
// was handed, and re-invokes the transport with the augmented history until
// the model produces a plain answer or the round cap forces one.
type ToolEngine struct {
	transport llm.Transport
	handlers  map[string]ToolHandler
}

// NewToolEngine creates an engine with the built-in read_file and
// list_files handlers.
func NewToolEngine(transport llm.Transport) *ToolEngine {
	return &ToolEngine{
		transport: transport,
		handlers: map[string]ToolHandler{
			"read_file":  handleReadFile,
			"list_files": handleListFiles,
		},
	}
}

// Schemas returns the tool descriptions passed to the completion API.
func (e *ToolEngine) Schemas() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "read_file",
				Description: "Read the full content of a file from the notes collection by its exact path.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"file_path": map[string]any{
							"type":        "string",
							"description": "Exact path of the file to read.",
						},
					},
					"required": []string{"file_path"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "list_files",
				Description: "List the paths of all files in the notes collection.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
	}
}

// RunTurn executes one full turn over the given history. The history must
// not include the trailing assistant placeholder; the sink owns that
// UI-side message, the engine only feeds it through AppendDelta.
func (e *ToolEngine) RunTurn(ctx context.Context, history []model.ChatMessage, snap *notes.Snapshot, sink TurnSink) error {
	messages := cloneMessages(history)
	state := stateAwaitingModel

	for round := 0; round < maxToolRounds; round++ {
		content, toolCalls, err := e.streamOnce(ctx, messages, sink)
		if err != nil {
			e.transition(&state, stateFailed, round)
			return err
		}

		if len(toolCalls) == 0 {
			e.transition(&state, stateDone, round)
			return nil
		}

		e.transition(&state, stateExecutingTools, round)
		assistant := model.ChatMessage{
			Role:      model.RoleAssistant,
			Content:   content,
			ToolCalls: toolCalls,
		}
		messages = append(messages, assistant)
		sink.AttachToolCalls(toolCalls)

		for _, call := range toolCalls {
			result := e.dispatch(call, snap)
			toolMsg := model.ChatMessage{
				Role:       model.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    result,
			}
			messages = append(messages, toolMsg)
			sink.AppendMessage(toolMsg)
		}

		// A fresh placeholder for the model's next attempt at an answer.
		sink.AppendMessage(model.ChatMessage{Role: model.RoleAssistant})
		e.transition(&state, stateAwaitingModel, round)
	}

	// Round cap reached: force a terminal answer rather than looping.
	slog.Warn("Tool round limit reached, forcing final answer", "rounds", maxToolRounds)
	sink.AppendDelta(roundLimitAnswer)
	return nil
}

func (e *ToolEngine) transition(state *turnState, next turnState, round int) {
	slog.Debug("Tool engine state transition", "from", int(*state), "to", int(next), "round", round)
	*state = next
}

// streamOnce runs one streaming completion, feeding marker-processed text
// into the sink and returning the accumulated content plus any assembled
// tool calls.
func (e *ToolEngine) streamOnce(ctx context.Context, messages []model.ChatMessage, sink TurnSink) (string, []model.ToolCall, error) {
	ch := make(chan llm.StreamEvent)
	go func() {
		if err := e.transport.ChatStream(ctx, &llm.ChatRequest{Messages: messages, Tools: e.Schemas()}, ch); err != nil {
			slog.Warn("Transport stream ended abnormally", "error", err)
		}
	}()

	var (
		splitter  llm.ThinkingSplitter
		content   string
		toolCalls []model.ToolCall
	)
	for event := range ch {
		if event.Error != "" {
			return content, nil, fmt.Errorf("%s", event.Error)
		}
		if event.Reasoning != "" {
			text := splitter.Reasoning(event.Reasoning)
			content += text
			sink.AppendDelta(text)
		}
		if event.Content != "" {
			text := splitter.Content(event.Content)
			content += text
			sink.AppendDelta(text)
		}
		if event.Done {
			toolCalls = event.ToolCalls
			if closing := splitter.Close(); closing != "" {
				content += closing
				sink.AppendDelta(closing)
			}
		}
	}
	return content, toolCalls, nil
}

// dispatch resolves one tool call. Unknown tool names and malformed
// arguments degrade to error text or defaults; they never abort the turn.
func (e *ToolEngine) dispatch(call model.ToolCall, snap *notes.Snapshot) string {
	handler, ok := e.handlers[call.Function.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name)
	}
	return handler(json.RawMessage(call.Function.Arguments), snap)
}

type readFileArgs struct {
	FilePath string `json:"file_path"`
}

func handleReadFile(args json.RawMessage, snap *notes.Snapshot) string {
	parsed := parseArgs[readFileArgs](args)
	if parsed.FilePath == "" {
		return "Error: file_path argument is missing"
	}
	content, ok := snap.Get(parsed.FilePath)
	if !ok {
		return fmt.Sprintf("Error: file not found: %s", parsed.FilePath)
	}
	return content
}

func handleListFiles(_ json.RawMessage, snap *notes.Snapshot) string {
	if snap.Len() == 0 {
		return "The notes collection is empty."
	}
	return snap.Listing()
}

// parseArgs decodes tool arguments defensively: malformed JSON yields the
// zero value instead of an error, so a garbled model response degrades to
// best-effort defaults.
func parseArgs[T any](raw json.RawMessage) T {
	var parsed T
	if len(raw) == 0 {
		return parsed
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		slog.Warn("Could not parse tool arguments, using defaults", "error", err)
		var zero T
		return zero
	}
	return parsed
}
