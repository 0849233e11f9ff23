package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	app_errors "notepilot/backend/internal/errors"
	"notepilot/backend/internal/model"
	"notepilot/backend/internal/notes"
)

// referenceDocsHeader introduces the serialized block of injected context
// files appended to a user turn.
const referenceDocsHeader = "Reference Documents:"

// errorPrefix is prepended to error text appended onto an in-progress
// assistant message, so the user sees exactly where generation stopped.
const errorPrefix = "Error: "

// SendMessageRequest is the structure for a new copilot message from the
// client. ContextFiles may arrive with paths only; missing content is
// fetched from the file index before the send.
type SendMessageRequest struct {
	Content      string              `json:"content" validate:"required"`
	ContextFiles []model.FileContext `json:"context_files,omitempty"`
}

// CopilotService is the public-facing controller of the copilot core: it
// ties the session store, the tool engine and the file index together and
// enforces single-flight semantics over send/regenerate.
type CopilotService struct {
	store        *SessionStore
	engine       *ToolEngine
	notes        notes.Provider
	systemPrompt string

	// loading gates send/regenerate: only one generation may be in flight.
	loading atomic.Bool
}

func NewCopilotService(store *SessionStore, engine *ToolEngine, notesProvider notes.Provider, systemPrompt string) *CopilotService {
	return &CopilotService{
		store:        store,
		engine:       engine,
		notes:        notesProvider,
		systemPrompt: systemPrompt,
	}
}

// SendMessage processes one user turn: it builds the user message (with
// injected reference documents), creates or extends the current session,
// appends an assistant placeholder and drives the transport/tool pipeline,
// mirroring every incremental update into the session store.
//
// The target session id is captured once at launch; every update is keyed
// by it, so a stale stream can never corrupt a session the user switched
// to mid-flight.
func (s *CopilotService) SendMessage(ctx context.Context, req *SendMessageRequest, streamChan chan<- model.StreamResponse) {
	defer close(streamChan)

	if !s.loading.CompareAndSwap(false, true) {
		streamChan <- model.StreamResponse{Error: app_errors.ErrBusy.Error()}
		return
	}
	defer s.loading.Store(false)

	userMsg := s.buildUserMessage(ctx, req)

	var (
		sessionID string
		messages  []model.ChatMessage
	)
	if current := s.store.CurrentID(); current == "" {
		session := s.store.Create(ctx, []model.ChatMessage{userMsg}, DeriveTitle([]model.ChatMessage{userMsg}))
		sessionID = session.ID
		messages = session.Messages
	} else {
		sessionID = current
		session, ok := s.store.Get(current)
		if !ok {
			streamChan <- model.StreamResponse{Error: app_errors.ErrNoSession.Error()}
			return
		}
		messages = append(session.Messages, userMsg)
	}

	s.runTurn(ctx, sessionID, messages, streamChan)
}

// RegenerateLastResponse discards the trailing assistant message of the
// current session, if any, and re-runs the pipeline over the remaining
// history without adding a new user turn.
func (s *CopilotService) RegenerateLastResponse(ctx context.Context, streamChan chan<- model.StreamResponse) {
	defer close(streamChan)

	if !s.loading.CompareAndSwap(false, true) {
		streamChan <- model.StreamResponse{Error: app_errors.ErrBusy.Error()}
		return
	}
	defer s.loading.Store(false)

	sessionID := s.store.CurrentID()
	if sessionID == "" {
		streamChan <- model.StreamResponse{Error: app_errors.ErrNoSession.Error()}
		return
	}
	session, ok := s.store.Get(sessionID)
	if !ok || len(session.Messages) == 0 {
		streamChan <- model.StreamResponse{Error: app_errors.ErrNoSession.Error()}
		return
	}

	messages := session.Messages
	last := messages[len(messages)-1]
	switch last.Role {
	case model.RoleAssistant:
		// Discard the answer being redone; the preceding user message is
		// reused as the prompt and never duplicated.
		messages = messages[:len(messages)-1]
	case model.RoleUser:
		// Nothing to discard; the trailing user message is the prompt.
	default:
		streamChan <- model.StreamResponse{Error: "last message cannot be regenerated"}
		return
	}

	s.runTurn(ctx, sessionID, messages, streamChan)
}

// runTurn appends the assistant placeholder, snapshots the file index and
// drives the tool engine, funneling all updates through a sink bound to
// sessionID.
func (s *CopilotService) runTurn(ctx context.Context, sessionID string, messages []model.ChatMessage, streamChan chan<- model.StreamResponse) {
	history := cloneMessages(messages)
	if s.systemPrompt != "" {
		history = append([]model.ChatMessage{{Role: model.RoleSystem, Content: s.systemPrompt}}, history...)
	}

	// The placeholder is a UI concern: it is stored and streamed so the
	// client can show a pending turn, but never sent to the transport.
	messages = append(messages, model.ChatMessage{Role: model.RoleAssistant})
	s.store.Update(ctx, sessionID, messages)

	snap, err := s.notes.Snapshot(ctx)
	if err != nil {
		slog.Warn("Could not snapshot file index, tools see an empty one", "error", err)
		snap = notes.NewSnapshot(nil)
	}

	sink := &sessionSink{svc: s, ctx: ctx, sessionID: sessionID, messages: messages, out: streamChan}
	if err := s.engine.RunTurn(ctx, history, snap, sink); err != nil {
		// Unrecoverable turn errors become visible text on the in-progress
		// assistant message, preserving conversation continuity.
		sink.AppendDelta(errorPrefix + err.Error())
	}

	streamChan <- model.StreamResponse{SessionID: sessionID, Done: true}
}

// buildUserMessage assembles the outgoing user turn, appending one
// serialized reference-document block per context file and recording the
// attached paths as a structured field.
func (s *CopilotService) buildUserMessage(ctx context.Context, req *SendMessageRequest) model.ChatMessage {
	msg := model.ChatMessage{Role: model.RoleUser, Content: req.Content}
	if len(req.ContextFiles) == 0 {
		return msg
	}

	seen := map[string]bool{}
	block := "\n\n" + referenceDocsHeader + "\n"
	for _, file := range req.ContextFiles {
		if file.Path == "" || seen[file.Path] {
			continue
		}
		seen[file.Path] = true

		content := file.Content
		if content == "" {
			fetched, err := s.notes.Content(ctx, file.Path)
			if err != nil {
				slog.Warn("Could not fetch context file, injecting placeholder", "path", file.Path, "error", err)
				fetched = "(file content unavailable)"
			}
			content = fetched
		}
		block += fmt.Sprintf("--- %s ---\n%s\n", file.Path, content)
		msg.ContextPaths = append(msg.ContextPaths, file.Path)
	}

	if len(msg.ContextPaths) > 0 {
		msg.Content += block
	}
	return msg
}

// ListSessions returns all stored sessions, newest-first.
func (s *CopilotService) ListSessions() []model.ChatSession {
	return s.store.List()
}

// GetSession returns one stored session by id.
func (s *CopilotService) GetSession(id string) (model.ChatSession, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return model.ChatSession{}, app_errors.ErrNotFound
	}
	return session, nil
}

// LoadSession switches the live view to a stored session.
func (s *CopilotService) LoadSession(ctx context.Context, id string) error {
	if _, ok := s.store.Get(id); !ok {
		return app_errors.ErrNotFound
	}
	s.store.SetCurrent(ctx, id)
	return nil
}

// ClearCurrentSession detaches from any session without deleting stored
// history.
func (s *CopilotService) ClearCurrentSession(ctx context.Context) {
	s.store.SetCurrent(ctx, "")
}

// DeleteSession removes a stored session; if it was the live one, the
// current pointer is cleared as well.
func (s *CopilotService) DeleteSession(ctx context.Context, id string) error {
	if !s.store.Delete(ctx, id) {
		return app_errors.ErrNotFound
	}
	return nil
}

// RenameSession sets a user-chosen title on a session.
func (s *CopilotService) RenameSession(ctx context.Context, id, title string) error {
	if !s.store.Rename(ctx, id, title) {
		return app_errors.ErrNotFound
	}
	return nil
}

// sessionSink writes engine output into the live message slice and mirrors
// every mutation into the store, always keyed by the session id the turn
// was launched for.
type sessionSink struct {
	svc       *CopilotService
	ctx       context.Context
	sessionID string
	messages  []model.ChatMessage
	out       chan<- model.StreamResponse
}

func (k *sessionSink) AppendDelta(text string) {
	if text == "" || len(k.messages) == 0 {
		return
	}
	k.messages[len(k.messages)-1].Content += text
	k.svc.store.Update(k.ctx, k.sessionID, k.messages)
	if k.out != nil {
		k.out <- model.StreamResponse{SessionID: k.sessionID, Content: text}
	}
}

func (k *sessionSink) AttachToolCalls(calls []model.ToolCall) {
	if len(k.messages) == 0 {
		return
	}
	k.messages[len(k.messages)-1].ToolCalls = calls
	k.svc.store.Update(k.ctx, k.sessionID, k.messages)
}

func (k *sessionSink) AppendMessage(msg model.ChatMessage) {
	k.messages = append(k.messages, msg)
	k.svc.store.Update(k.ctx, k.sessionID, k.messages)
}
