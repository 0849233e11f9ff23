package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"notepilot/backend/internal/api"
	"notepilot/backend/internal/config"
	"notepilot/backend/internal/database"
	"notepilot/backend/internal/llm"
	"notepilot/backend/internal/notes"
	"notepilot/backend/internal/repository"
	"notepilot/backend/internal/service"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()
	slog.Info("Successfully connected to SQLite database.")

	notesProvider, err := buildNotesProvider(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize notes provider", "source", cfg.NotesSource, "error", err)
		return 1
	}
	if closer, ok := notesProvider.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("Failed to close notes provider", "error", err)
			}
		}()
	}

	repo := repository.NewSQLiteRepository(db)
	transport := llm.NewOpenAITransport(llm.Config{
		BaseURL: cfg.CopilotBaseURL,
		APIKey:  cfg.CopilotAPIKey,
		Model:   cfg.CopilotModel,
	})

	sessionStore := service.NewSessionStore(context.Background(), repo)
	toolEngine := service.NewToolEngine(transport)
	copilotService := service.NewCopilotService(sessionStore, toolEngine, notesProvider, cfg.SystemPrompt)
	fileIndexService := service.NewFileIndexService(notesProvider)

	copilotHandler := api.NewCopilotHandler(copilotService, fileIndexService)
	router := api.NewRouter(copilotHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

// buildNotesProvider selects the file-index backend from configuration.
func buildNotesProvider(ctx context.Context, cfg *config.Config) (notes.Provider, error) {
	switch strings.ToLower(cfg.NotesSource) {
	case "local":
		return notes.NewLocalProvider(cfg.NotesDir)
	case "github":
		return notes.NewGithubProvider(ctx, cfg.GithubRepo, cfg.GithubRef, cfg.GithubToken)
	case "mock", "":
		return notes.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown notes source %q", cfg.NotesSource)
	}
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
