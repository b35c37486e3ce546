package testkit

import (
	"context"
	"sync"

	"github.com/go-telegram/bot/models"
)

// Outbound kinds recorded by Messenger.
const (
	OpSend     = "send"
	OpEdit     = "edit"
	OpDocument = "document"
)

// Outbound is one rendering instruction captured by Messenger.
type Outbound struct {
	Op        string
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  *models.InlineKeyboardMarkup
	Handle    string
}

// Messenger records every outbound call. EditErr makes edits fail so callers
// fall back to sending.
type Messenger struct {
	mu      sync.Mutex
	out     []Outbound
	EditErr error
	SendErr error
}

// Send records a new message.
func (m *Messenger) Send(_ context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.out = append(m.out, Outbound{Op: OpSend, ChatID: chatID, Text: text, Keyboard: keyboard})
	return nil
}

// Edit records an in-place edit.
func (m *Messenger) Edit(_ context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditErr != nil {
		return m.EditErr
	}
	m.out = append(m.out, Outbound{Op: OpEdit, ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return nil
}

// SendDocument records a file delivery.
func (m *Messenger) SendDocument(_ context.Context, chatID int64, handle, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.out = append(m.out, Outbound{Op: OpDocument, ChatID: chatID, Text: caption, Handle: handle})
	return nil
}

// All returns everything recorded so far.
func (m *Messenger) All() []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outbound(nil), m.out...)
}

// Last returns the most recent outbound call, or the zero value.
func (m *Messenger) Last() Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.out) == 0 {
		return Outbound{}
	}
	return m.out[len(m.out)-1]
}

// Reset forgets recorded calls.
func (m *Messenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = nil
}

// CallbackData flattens a keyboard into its callback payloads, skipping URL
// buttons.
func CallbackData(kb *models.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != "" {
				data = append(data, button.CallbackData)
			}
		}
	}
	return data
}

// Labels flattens a keyboard into its button texts.
func Labels(kb *models.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var labels []string
	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			labels = append(labels, button.Text)
		}
	}
	return labels
}
