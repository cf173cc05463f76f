package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig"
	"go.uber.org/zap"

	"github.com/oruko-mi/chat/internal/middleware"
	"github.com/oruko-mi/chat/internal/model"
	"github.com/oruko-mi/chat/internal/render"
	"github.com/oruko-mi/chat/internal/service"
	"github.com/oruko-mi/chat/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// refreshSeconds is how often the chat view reloads while a reply is pending.
const refreshSeconds = 1

// chatPage is the data behind the chat view.
type chatPage struct {
	State          model.StateView
	RefreshSeconds int
	ComposerLimit  int
	LiveEvents     bool
}

// ViewHandler serves the server-rendered landing and chat views. Form posts
// change state through the controller and redirect back to the chat view.
type ViewHandler struct {
	ctrl       *service.Controller
	tmpl       *template.Template
	logger     *logger.Logger
	liveEvents bool
}

// NewViewHandler parses the embedded templates. With liveEvents the chat view
// also listens on /api/v1/events and reloads as soon as a reply lands.
func NewViewHandler(ctrl *service.Controller, log *logger.Logger, liveEvents bool) (*ViewHandler, error) {
	funcs := sprig.HtmlFuncMap()
	funcs["renderMessage"] = func(m model.Message) (template.HTML, error) {
		return render.Message(m.Role, m.Content)
	}

	tmpl, err := template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &ViewHandler{
		ctrl:       ctrl,
		tmpl:       tmpl,
		logger:     log,
		liveEvents: liveEvents,
	}, nil
}

// Landing handles GET /
func (h *ViewHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.execute(w, "landing.html", nil)
}

// Chat handles GET /chat
func (h *ViewHandler) Chat(w http.ResponseWriter, r *http.Request) {
	h.execute(w, "chat.html", &chatPage{
		State:          h.ctrl.Snapshot(),
		RefreshSeconds: refreshSeconds,
		ComposerLimit:  middleware.MaxMessageBytes,
		LiveEvents:     h.liveEvents,
	})
}

// NewChat handles POST /chat/new
func (h *ViewHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	h.ctrl.NewChat(r.Context())
	redirectToChat(w, r)
}

// Select handles POST /chat/select
func (h *ViewHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.ctrl.SelectChat(r.Context(), r.PostForm.Get("id"))
	redirectToChat(w, r)
}

// Send handles POST /chat/send
// Rejected submissions keep their text in the composer.
func (h *ViewHandler) Send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	content := r.PostForm.Get("content")
	if err := middleware.ValidateMessageContent(content); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.ctrl.SubmitText(r.Context(), content)
	redirectToChat(w, r)
}

// ToggleSidebar handles POST /chat/sidebar
func (h *ViewHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ToggleSidebar()
	redirectToChat(w, r)
}

func (h *ViewHandler) execute(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render view", zap.String("view", name), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func redirectToChat(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}
