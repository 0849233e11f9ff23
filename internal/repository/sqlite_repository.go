package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notepilot/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SaveSessions(ctx context.Context, sessions []model.ChatSession) error {
	if sessions == nil {
		sessions = []model.ChatSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("could not marshal sessions: %w", err)
	}
	return r.set(ctx, KeySessions, string(data))
}

func (r *sqliteRepository) LoadSessions(ctx context.Context) ([]model.ChatSession, error) {
	value, err := r.get(ctx, KeySessions)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.ChatSession{}, nil
		}
		return nil, err
	}

	var sessions []model.ChatSession
	if err := json.Unmarshal([]byte(value), &sessions); err != nil {
		return nil, fmt.Errorf("could not unmarshal sessions: %w", err)
	}
	return sessions, nil
}

func (r *sqliteRepository) SaveCurrentSessionID(ctx context.Context, id string) error {
	if id == "" {
		query := "DELETE FROM storage WHERE key = ?"
		_, err := r.db.ExecContext(ctx, query, KeyCurrentID)
		return err
	}
	return r.set(ctx, KeyCurrentID, id)
}

func (r *sqliteRepository) LoadCurrentSessionID(ctx context.Context) (string, error) {
	return r.get(ctx, KeyCurrentID)
}

func (r *sqliteRepository) set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

func (r *sqliteRepository) get(ctx context.Context, key string) (string, error) {
	query := "SELECT value FROM storage WHERE key = ?"
	row := r.db.QueryRowContext(ctx, query, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}
