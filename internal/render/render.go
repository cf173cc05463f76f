// Package render turns chat messages into HTML blocks for the chat view.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/oruko-mi/chat/internal/model"
)

// Renderer converts message content from markdown. Raw HTML in the source is
// dropped, so the output is safe to embed.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a renderer with GitHub-flavoured markdown enabled.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

var defaultRenderer = New()

// Message renders one message with the default renderer.
func Message(role model.Role, content string) (template.HTML, error) {
	return defaultRenderer.Message(role, content)
}

// Message renders a role-specific block around the markdown body. Unknown
// roles render as user messages.
func (r *Renderer) Message(role model.Role, content string) (template.HTML, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(content), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	class, avatar := "message-user", "You"
	if role == model.RoleAssistant {
		class, avatar = "message-assistant", "Orúkọ"
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, `<div class="message %s"><div class="avatar">%s</div><div class="prose">`,
		class, template.HTMLEscapeString(avatar))
	out.Write(body.Bytes())
	out.WriteString(`</div></div>`)

	return template.HTML(out.String()), nil
}
