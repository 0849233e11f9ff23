package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notepilot/backend/internal/interfaces"
	"notepilot/backend/internal/model"
	"notepilot/backend/internal/service"
)

// CopilotHandler handles HTTP requests for the copilot conversation and
// session management endpoints.
type CopilotHandler struct {
	copilot interfaces.CopilotService
	files   interfaces.FileIndexService
}

func NewCopilotHandler(copilot interfaces.CopilotService, files interfaces.FileIndexService) *CopilotHandler {
	return &CopilotHandler{copilot: copilot, files: files}
}

// HandleSendMessage godoc
// @Summary      Send a copilot message
// @Description  Sends a user message (optionally with attached context files) and streams the assistant response as Server-Sent Events.
// @Tags         Copilot
// @Accept       json
// @Produce      text/event-stream
// @Param        messageRequest  body  service.SendMessageRequest  true  "User message"
// @Success      200  {object}  model.StreamResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/copilot/messages [post]
func (h *CopilotHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	streamChan := make(chan model.StreamResponse)
	go h.copilot.SendMessage(r.Context(), &req, streamChan)

	h.pumpStream(w, r, streamChan)
}

// HandleRegenerate godoc
// @Summary      Regenerate the last response
// @Description  Discards the trailing assistant message of the current session and streams a fresh response over Server-Sent Events.
// @Tags         Copilot
// @Produce      text/event-stream
// @Success      200  {object}  model.StreamResponse
// @Router       /v1/copilot/messages/regenerate [post]
func (h *CopilotHandler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	streamChan := make(chan model.StreamResponse)
	go h.copilot.RegenerateLastResponse(r.Context(), streamChan)

	h.pumpStream(w, r, streamChan)
}

// GetSessions godoc
// @Summary      List sessions
// @Description  Returns all stored sessions, newest first.
// @Tags         Sessions
// @Produce      json
// @Success      200  {array}  model.ChatSession
// @Router       /v1/sessions [get]
func (h *CopilotHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.copilot.ListSessions())
}

// GetSession godoc
// @Summary      Get one session
// @Description  Returns a single stored session with its full message history.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  model.ChatSession
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [get]
func (h *CopilotHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.copilot.GetSession(sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// LoadSession godoc
// @Summary      Activate a session
// @Description  Makes a stored session the current one; subsequent messages append to it.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/load [post]
func (h *CopilotHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.copilot.LoadSession(r.Context(), sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// ClearCurrentSession godoc
// @Summary      Start a fresh conversation
// @Description  Detaches from the current session without deleting it. The next message starts a new session.
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /v1/sessions/current [delete]
func (h *CopilotHandler) ClearCurrentSession(w http.ResponseWriter, r *http.Request) {
	h.copilot.ClearCurrentSession(r.Context())
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// UpdateSessionTitle godoc
// @Summary      Rename a session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID     path  string              true  "Session ID"
// @Param        titleRequest  body  UpdateTitleRequest  true  "New title"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/title [put]
func (h *CopilotHandler) UpdateSessionTitle(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.copilot.RenameSession(r.Context(), sessionID, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// DeleteSession godoc
// @Summary      Delete a session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID} [delete]
func (h *CopilotHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.copilot.DeleteSession(r.Context(), sessionID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetFiles godoc
// @Summary      List indexed note files
// @Description  Returns the sorted paths of every file in the notes index.
// @Tags         Files
// @Produce      json
// @Success      200  {array}  string
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/files [get]
func (h *CopilotHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	paths, err := h.files.ListFiles(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, paths)
}

// GetFileContent godoc
// @Summary      Read one note file
// @Description  Returns the full content of an indexed file, looked up by exact path.
// @Tags         Files
// @Produce      json
// @Param        path  query  string  true  "File path within the collection"
// @Success      200  {object}  FileContentResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/files/content [get]
func (h *CopilotHandler) GetFileContent(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Query parameter 'path' is required"})
		return
	}

	content, err := h.files.ReadFile(r.Context(), path)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, FileContentResponse{Path: path, Content: content})
}

// setStreamHeaders prepares the response for Server-Sent Events.
func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// pumpStream forwards service stream chunks to the client until the channel
// closes or the client disconnects. The service owns the channel and always
// closes it, so a disconnected client just drains into the void.
func (h *CopilotHandler) pumpStream(w http.ResponseWriter, r *http.Request, streamChan <-chan model.StreamResponse) {
	for chunk := range streamChan {
		if r.Context().Err() != nil {
			slog.Info("Client disconnected during stream")
			break
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Warn("Stopping stream, write failed", "error", err)
			break
		}
	}
	// The service goroutine keeps sending until it closes the channel; if the
	// writes above stopped early, discard the remainder so the turn can reach
	// its terminal path and release the generation lock.
	for range streamChan {
	}
}
