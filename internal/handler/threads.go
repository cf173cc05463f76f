// Package handler provides HTTP handlers for the chat views and the JSON API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/middleware"
	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
)

// ThreadHandler handles thread endpoints.
type ThreadHandler struct {
	ctrl   *service.Controller
	logger *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(ctrl *service.Controller, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		ctrl:   ctrl,
		logger: log,
	}
}

// State handles GET /api/v1/state
func (h *ThreadHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// List handles GET /api/v1/threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	store := h.ctrl.Store()
	writeJSON(w, http.StatusOK, &model.ListThreadsResponse{
		Threads:  store.Summaries(),
		ActiveID: store.ActiveID(),
	})
}

// Create handles POST /api/v1/threads
func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.ctrl.NewChat(r.Context())

	thread, ok := h.ctrl.Store().Thread(id)
	if !ok {
		h.logger.Error("created thread vanished", zap.String("thread_id", id))
		writeError(w, http.StatusInternalServerError, "failed to create thread")
		return
	}

	writeJSON(w, http.StatusCreated, thread)
}

// Get handles GET /api/v1/threads/{id}
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, ok := h.ctrl.Store().Thread(threadID)
	if !ok {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

// Select handles POST /api/v1/threads/{id}/select
func (h *ThreadHandler) Select(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.ctrl.SelectChat(r.Context(), threadID) {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}
