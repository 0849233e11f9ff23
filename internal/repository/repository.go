package repository

import (
	"context"

	"notepilot/backend/internal/model"
)

// Storage keys for the copilot state. The whole session list is stored as
// one JSON document and the current session id as a bare string, so the
// persisted layout stays a simple two-entry key/value space.
const (
	KeySessions  = "copilot_sessions"
	KeyCurrentID = "copilot_current_session"
)

// Repository defines the interface for durable copilot storage.
// This interface makes it easy to switch database implementations.
type Repository interface {
	SaveSessions(ctx context.Context, sessions []model.ChatSession) error
	LoadSessions(ctx context.Context) ([]model.ChatSession, error)

	// SaveCurrentSessionID persists the current-session pointer; an empty
	// id clears it.
	SaveCurrentSessionID(ctx context.Context, id string) error
	LoadCurrentSessionID(ctx context.Context) (string, error)
}
