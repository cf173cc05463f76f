package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oruko-mi/chat/internal/model"
)

func TestMessage_RoleBlocks(t *testing.T) {
	user, err := Message(model.RoleUser, "hello")
	require.NoError(t, err)
	assert.Contains(t, string(user), `class="message message-user"`)
	assert.Contains(t, string(user), "<p>hello</p>")

	bot, err := Message(model.RoleAssistant, "hi")
	require.NoError(t, err)
	assert.Contains(t, string(bot), `class="message message-assistant"`)
}

func TestMessage_Markdown(t *testing.T) {
	out, err := Message(model.RoleAssistant, "**Adebayo** means:\n\n- crown\n- joy")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<strong>Adebayo</strong>")
	assert.Contains(t, html, "<li>crown</li>")
	assert.Contains(t, html, "<li>joy</li>")
}

func TestMessage_DropsRawHTML(t *testing.T) {
	out, err := Message(model.RoleUser, `<script>alert(1)</script>`)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(out), "<script>"))
}

func TestMessage_Empty(t *testing.T) {
	out, err := New().Message(model.RoleAssistant, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), `<div class="prose"></div></div>`))
}
