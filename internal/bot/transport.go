package bot

import (
	"context"
	"strconv"
	"strings"
)

// Button is one inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a list of button rows
type Keyboard [][]Button

// Recipient is a chat id or a public channel username such as @shop
type Recipient struct {
	ChatID  int64
	Channel string
}

// ParseRecipient accepts a numeric chat id or a channel username
func ParseRecipient(s string) Recipient {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Recipient{ChatID: id}
	}
	if s != "" && !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return Recipient{Channel: s}
}

// IsZero reports whether r names no chat
func (r Recipient) IsZero() bool {
	return r.ChatID == 0 && r.Channel == ""
}

// Transport renders bot output. Text is HTML.
type Transport interface {
	RenderText(ctx context.Context, ref MessageRef, text string, kb Keyboard) error
	RenderMedia(ctx context.Context, ref MessageRef, imageURL, caption string, kb Keyboard) error
	SendMessage(ctx context.Context, to Recipient, text string, kb Keyboard) (MessageRef, error)
	DeleteMessage(ctx context.Context, ref MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
