package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/middleware"
	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	ctrl   *service.Controller
	logger *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(ctrl *service.Controller, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		ctrl:   ctrl,
		logger: log,
	}
}

// Submit handles POST /api/v1/messages
// The message goes to the active thread. With ?wait=true the response is held
// until the assistant reply has been appended.
func (h *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, accepted := h.ctrl.SubmitText(ctx, req.Content)
	if !accepted {
		writeJSON(w, http.StatusOK, &model.SubmitResponse{Accepted: false})
		return
	}

	resp := &model.SubmitResponse{
		Accepted: true,
		ThreadID: task.ThreadID(),
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	reply, err := task.Wait(ctx)
	if err != nil {
		h.logger.Debug("client stopped waiting for reply",
			zap.String("thread_id", task.ThreadID()),
			zap.Error(err),
		)
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	resp.Reply = &reply
	writeJSON(w, http.StatusOK, resp)
}
