package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"course_catalog_bot/internal/chat"
)

// EventFromUpdate reduces an update to a chat.Event. Only private chats are
// served; group traffic and unsupported update kinds report false.
func EventFromUpdate(update *models.Update) (chat.Event, bool) {
	switch {
	case update == nil:
		return chat.Event{}, false
	case update.Message != nil:
		return fromMessage(update.Message)
	case update.CallbackQuery != nil:
		return fromCallback(update.CallbackQuery)
	default:
		return chat.Event{}, false
	}
}

func fromMessage(msg *models.Message) (chat.Event, bool) {
	if msg.From == nil || msg.Chat.Type != models.ChatTypePrivate {
		return chat.Event{}, false
	}

	ev := chat.Event{
		UserID:   msg.From.ID,
		Username: msg.From.Username,
		ChatID:   msg.Chat.ID,
	}

	if msg.Document != nil {
		ev.Kind = chat.EventDocument
		ev.Text = strings.TrimSpace(msg.Caption)
		ev.Document = &chat.Document{Handle: msg.Document.FileID, FileName: msg.Document.FileName}
		return ev, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return chat.Event{}, false
	}
	ev.Text = text

	if name, args, ok := parseCommand(text); ok {
		ev.Kind = chat.EventCommand
		ev.Command = name
		ev.Args = args
		return ev, true
	}

	ev.Kind = chat.EventText
	return ev, true
}

func fromCallback(query *models.CallbackQuery) (chat.Event, bool) {
	chatID, messageID := messageRef(query.Message)
	if chatID == 0 {
		chatID = query.From.ID
	}

	return chat.Event{
		Kind:       chat.EventCallback,
		UserID:     query.From.ID,
		Username:   query.From.Username,
		ChatID:     chatID,
		MessageID:  messageID,
		CallbackID: query.ID,
		Text:       query.Data,
	}, true
}

// parseCommand splits "/name@bot arg1 arg2" into a lower-cased name and args.
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}

	var args []string
	if len(fields) > 1 {
		args = fields[1:]
	}
	return strings.ToLower(name), args, true
}

func messageRef(msg models.MaybeInaccessibleMessage) (int64, int) {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0, 0
		}
		return msg.Message.Chat.ID, msg.Message.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0, 0
		}
		return msg.InaccessibleMessage.Chat.ID, msg.InaccessibleMessage.MessageID
	default:
		return 0, 0
	}
}
