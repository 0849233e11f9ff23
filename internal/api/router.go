package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "notepilot/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(copilotHandler *CopilotHandler) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.

	// --- Public Routes ---

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// A simple health check endpoint for container orchestration probes.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Group for standard JSON API routes that should have a request timeout
		// to prevent client connections from hanging indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// --- Sessions ---
			r.Get("/sessions", copilotHandler.GetSessions)
			r.Delete("/sessions/current", copilotHandler.ClearCurrentSession)
			r.Get("/sessions/{sessionID}", copilotHandler.GetSession)
			r.Post("/sessions/{sessionID}/load", copilotHandler.LoadSession)
			r.Put("/sessions/{sessionID}/title", copilotHandler.UpdateSessionTitle)
			r.Delete("/sessions/{sessionID}", copilotHandler.DeleteSession)

			// --- Files ---
			r.Get("/files", copilotHandler.GetFiles)
			r.Get("/files/content", copilotHandler.GetFileContent)
		})

		// Group for long-running, streaming endpoints. These routes must NOT have a timeout,
		// as they are designed to hold a connection open for an extended period.
		r.Group(func(r chi.Router) {
			r.Post("/copilot/messages", copilotHandler.HandleSendMessage)
			r.Post("/copilot/messages/regenerate", copilotHandler.HandleRegenerate)
		})
	})

	return r
}
