// Package chat holds the transport-neutral event model and the outbound
// capabilities the handlers depend on.
package chat

import (
	"context"
	"errors"

	"github.com/go-telegram/bot/models"

	"course_catalog_bot/internal/logging"
)

// ErrNotModified reports an edit that would leave the message unchanged.
var ErrNotModified = errors.New("message is not modified")

// EventKind classifies an inbound update.
type EventKind string

const (
	EventCommand  EventKind = "command"
	EventCallback EventKind = "callback"
	EventText     EventKind = "text"
	EventDocument EventKind = "document"
)

// Document is an attachment received from a user.
type Document struct {
	Handle   string
	FileName string
}

// Event is one inbound update reduced to what the handlers need.
type Event struct {
	Kind     EventKind
	UserID   int64
	Username string
	ChatID   int64
	// MessageID is the message carrying the pressed button; zero otherwise.
	MessageID  int
	CallbackID string
	// Command is the bare command name without the leading slash or @botname.
	Command string
	Args    []string
	// Text holds the message text, the document caption or the callback data.
	Text     string
	Document *Document
}

// Target returns where a reply to the event should be rendered. Button presses
// edit the message they came from; everything else gets a new message.
func (e Event) Target() Target {
	if e.Kind == EventCallback {
		return Target{ChatID: e.ChatID, MessageID: e.MessageID}
	}
	return Target{ChatID: e.ChatID}
}

// Target identifies a chat and, optionally, a message to edit in place.
type Target struct {
	ChatID    int64
	MessageID int
}

// Messenger sends rendering instructions back through the transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) error
	SendDocument(ctx context.Context, chatID int64, handle, caption string) error
}

// Render edits target's message when it has one, falling back to a new message
// when the edit is rejected (for example because the message is too old). An
// edit that changes nothing counts as rendered.
func Render(ctx context.Context, m Messenger, target Target, text string, keyboard *models.InlineKeyboardMarkup) error {
	if target.MessageID != 0 {
		err := m.Edit(ctx, target.ChatID, target.MessageID, text, keyboard)
		if err == nil || errors.Is(err, ErrNotModified) {
			return nil
		}
		logging.Warn("edit rejected, sending a new message", logging.Fields{
			"event":      "render_edit_failed",
			"chat_id":    target.ChatID,
			"message_id": target.MessageID,
			"error":      err,
		})
	}
	return m.Send(ctx, target.ChatID, text, keyboard)
}

// Button builds a callback button.
func Button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

// LinkButton builds a URL button.
func LinkButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, URL: url}
}

// Keyboard stacks one button per row.
func Keyboard(buttons ...models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		rows = append(rows, []models.InlineKeyboardButton{button})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
