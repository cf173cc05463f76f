package handler

import (
	"net/http"

	"github.com/oruko-mi/chat/internal/service"
)

// ModelHandler describes the completion backend.
type ModelHandler struct {
	ctrl *service.Controller
}

// NewModelHandler creates a new model handler.
func NewModelHandler(ctrl *service.Controller) *ModelHandler {
	return &ModelHandler{ctrl: ctrl}
}

// List handles GET /api/v1/models
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Models())
}
