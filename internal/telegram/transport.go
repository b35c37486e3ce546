package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/membership"
)

const notModifiedDescription = "message is not modified"

// Transport sends rendering instructions and answers membership queries
// through the Bot API.
type Transport struct {
	bot botAPI
}

// NewTransport wraps a bot.
func NewTransport(b botAPI) *Transport {
	return &Transport{bot: b}
}

// Send posts a new message.
func (t *Transport) Send(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram transport is not initialized")
	}

	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// Edit replaces the text and keyboard of an existing message.
func (t *Transport) Edit(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram transport is not initialized")
	}

	params := &bot.EditMessageTextParams{ChatID: chatID, MessageID: messageID, Text: text}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := t.bot.EditMessageText(ctx, params); err != nil {
		if errors.Is(err, bot.ErrorBadRequest) && strings.Contains(err.Error(), notModifiedDescription) {
			return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, chat.ErrNotModified)
		}
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendDocument re-sends a previously uploaded file by its file id.
func (t *Transport) SendDocument(ctx context.Context, chatID int64, handle, caption string) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram transport is not initialized")
	}

	if _, err := t.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileString{Data: handle},
		Caption:  caption,
	}); err != nil {
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press.
func (t *Transport) AnswerCallback(ctx context.Context, callbackID string) error {
	if t == nil || t.bot == nil {
		return errors.New("telegram transport is not initialized")
	}

	if _, err := t.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// MemberStatus returns the raw Bot API status of userID in channelID.
func (t *Transport) MemberStatus(ctx context.Context, channelID, userID int64) (string, error) {
	if t == nil || t.bot == nil {
		return "", errors.New("telegram transport is not initialized")
	}

	member, err := t.bot.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: channelID, UserID: userID})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	if member == nil {
		return "", errors.New("get chat member returned no result")
	}
	return string(member.Type), nil
}

// ChannelInfo resolves the title, username and invite link of a channel.
func (t *Transport) ChannelInfo(ctx context.Context, channelID int64) (membership.Channel, error) {
	if t == nil || t.bot == nil {
		return membership.Channel{}, errors.New("telegram transport is not initialized")
	}

	info, err := t.bot.GetChat(ctx, &bot.GetChatParams{ChatID: channelID})
	if err != nil {
		return membership.Channel{}, fmt.Errorf("get chat %d: %w", channelID, err)
	}
	if info == nil {
		return membership.Channel{}, errors.New("get chat returned no result")
	}

	return membership.Channel{
		ID:         channelID,
		Title:      info.Title,
		Username:   info.Username,
		InviteLink: info.InviteLink,
	}, nil
}
