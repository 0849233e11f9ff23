package interfaces

import (
	"context"

	"notepilot/backend/internal/model"
	"notepilot/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows for
// decoupling (e.g., API layer from Service layer) and easier testing via mocking.

// CopilotService defines the contract for the copilot conversation logic.
type CopilotService interface {
	SendMessage(ctx context.Context, req *service.SendMessageRequest, streamChan chan<- model.StreamResponse)
	RegenerateLastResponse(ctx context.Context, streamChan chan<- model.StreamResponse)
	ListSessions() []model.ChatSession
	GetSession(id string) (model.ChatSession, error)
	LoadSession(ctx context.Context, id string) error
	ClearCurrentSession(ctx context.Context)
	DeleteSession(ctx context.Context, id string) error
	RenameSession(ctx context.Context, id, title string) error
}

// FileIndexService defines the contract for browsing the notes collection.
type FileIndexService interface {
	ListFiles(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, path string) (string, error)
}
