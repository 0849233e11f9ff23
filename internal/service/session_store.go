package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notepilot/backend/internal/model"
	"notepilot/backend/internal/repository"
)

// titleLimit is how many bytes of the first user message become the session
// title before it is cut and suffixed with an ellipsis.
const titleLimit = 30

// SessionStore owns the persisted session list and the current-session
// pointer. Every mutation is written through to the repository synchronously
// after the in-memory update; persistence failures are logged and swallowed
// so a storage hiccup never halts an in-flight generation.
type SessionStore struct {
	repo repository.Repository

	mu        sync.RWMutex
	sessions  []model.ChatSession // newest first
	currentID string
}

// NewSessionStore loads the persisted session list. Corrupt or unreadable
// data is treated as an empty list. The current-session pointer is
// deliberately not restored: every fresh start begins with no active
// session.
func NewSessionStore(ctx context.Context, repo repository.Repository) *SessionStore {
	store := &SessionStore{repo: repo}

	sessions, err := repo.LoadSessions(ctx)
	if err != nil {
		slog.Warn("Could not load persisted sessions, starting empty", "error", err)
		sessions = []model.ChatSession{}
	}
	store.sessions = sessions
	return store
}

// List returns all sessions, newest-first by creation timestamp.
func (s *SessionStore) List() []model.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSessions(s.sessions)
}

// Get returns a session by id.
func (s *SessionStore) Get(id string) (model.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return cloneSession(sess), true
		}
	}
	return model.ChatSession{}, false
}

// Create allocates a new session with a unique id, inserts it at the head
// of the list, marks it current and persists.
func (s *SessionStore) Create(ctx context.Context, initial []model.ChatMessage, title string) model.ChatSession {
	if title == "" {
		title = model.DefaultSessionTitle
	}
	session := model.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Timestamp: time.Now().UTC(),
		Messages:  cloneMessages(initial),
	}

	s.mu.Lock()
	s.sessions = append([]model.ChatSession{session}, s.sessions...)
	s.currentID = session.ID
	s.mu.Unlock()

	s.persistSessions(ctx)
	s.persistCurrentID(ctx)
	return cloneSession(session)
}

// Update replaces the message list of a session and persists. The title is
// re-derived from the first user message if the current one is still the
// default placeholder or was auto-truncated (ends with an ellipsis); a
// user-chosen title is never clobbered.
func (s *SessionStore) Update(ctx context.Context, id string, messages []model.ChatMessage) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID != id {
			continue
		}
		s.sessions[i].Messages = cloneMessages(messages)
		if s.sessions[i].Title == model.DefaultSessionTitle || strings.HasSuffix(s.sessions[i].Title, "...") {
			if derived := DeriveTitle(messages); derived != "" {
				s.sessions[i].Title = derived
			}
		}
		break
	}
	s.mu.Unlock()

	s.persistSessions(ctx)
}

// Rename sets an explicit, user-chosen title on a session.
func (s *SessionStore) Rename(ctx context.Context, id, title string) bool {
	found := false
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Title = title
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.persistSessions(ctx)
	}
	return found
}

// Delete removes a session. If it was current, the current pointer is
// cleared; no other session is auto-selected.
func (s *SessionStore) Delete(ctx context.Context, id string) bool {
	found := false
	clearedCurrent := false

	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			found = true
			break
		}
	}
	if found && s.currentID == id {
		s.currentID = ""
		clearedCurrent = true
	}
	s.mu.Unlock()

	if found {
		s.persistSessions(ctx)
	}
	if clearedCurrent {
		s.persistCurrentID(ctx)
	}
	return found
}

// SetCurrent switches the current-session pointer; an empty id detaches
// from any session.
func (s *SessionStore) SetCurrent(ctx context.Context, id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()

	s.persistCurrentID(ctx)
}

// CurrentID returns the id of the active session, or "" when none is active.
func (s *SessionStore) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// DeriveTitle builds a session title from the first user message: the first
// line, cut to titleLimit bytes with an ellipsis suffix when truncated.
func DeriveTitle(messages []model.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role != model.RoleUser {
			continue
		}
		title := msg.Content
		if idx := strings.IndexAny(title, "\r\n"); idx >= 0 {
			title = title[:idx]
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return ""
		}
		if len(title) > titleLimit {
			title = title[:titleLimit] + "..."
		}
		return title
	}
	return ""
}

func (s *SessionStore) persistSessions(ctx context.Context) {
	s.mu.RLock()
	sessions := cloneSessions(s.sessions)
	s.mu.RUnlock()

	if err := s.repo.SaveSessions(ctx, sessions); err != nil {
		slog.Warn("Could not persist sessions", "error", err)
	}
}

func (s *SessionStore) persistCurrentID(ctx context.Context) {
	s.mu.RLock()
	id := s.currentID
	s.mu.RUnlock()

	if err := s.repo.SaveCurrentSessionID(ctx, id); err != nil {
		slog.Warn("Could not persist current session id", "error", err)
	}
}

func cloneSessions(sessions []model.ChatSession) []model.ChatSession {
	result := make([]model.ChatSession, len(sessions))
	for i, sess := range sessions {
		result[i] = cloneSession(sess)
	}
	return result
}

func cloneSession(session model.ChatSession) model.ChatSession {
	session.Messages = cloneMessages(session.Messages)
	return session
}

func cloneMessages(messages []model.ChatMessage) []model.ChatMessage {
	result := make([]model.ChatMessage, len(messages))
	copy(result, messages)
	return result
}
