package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "Hello", want: "Hello"},
		{name: "exactly thirty", content: strings.Repeat("a", 30), want: strings.Repeat("a", 30)},
		{name: "thirty one", content: strings.Repeat("b", 31), want: strings.Repeat("b", 30) + "..."},
		{
			name:    "forty five",
			content: "What does the Yoruba name Adebayo mean to you",
			want:    "What does the Yoruba name Adeb...",
		},
		{name: "multibyte", content: strings.Repeat("ọ", 35), want: strings.Repeat("ọ", 30) + "..."},
		{name: "keeps whitespace", content: "  hi  ", want: "  hi  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}

func TestThreadClone(t *testing.T) {
	th := &Thread{ID: "1", Title: DefaultTitle, Messages: []Message{NewUserMessage("a")}}
	c := th.Clone()
	c.Messages[0].Content = "changed"
	c.Messages = append(c.Messages, NewAssistantMessage("b"))

	assert.Equal(t, "a", th.Messages[0].Content)
	assert.Len(t, th.Messages, 1)
}
