// Package telegram hosts the Telegram client, the update to event conversion
// and the outbound transport used by the handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/config"
	"course_catalog_bot/internal/logging"
)

// botAPI is the subset of *bot.Bot the client and transport call.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Handler consumes converted events.
type Handler interface {
	Dispatch(ctx context.Context, ev chat.Event)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and forwards private-chat updates to
// the installed handler.
type Client struct {
	bot    botAPI
	logger *logrus.Entry

	mu      sync.RWMutex
	handler Handler
}

// NewClient initializes the Telegram bot with long polling. Updates are
// handled one at a time in arrival order. Updates received before SetHandler
// is called are logged and dropped.
func NewClient(cfg config.Config, logger *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	c := &Client{logger: logger}

	tgBot, err := createBot(cfg.BotToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithNotAsyncHandlers(),
		bot.WithDefaultHandler(c.onUpdate),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	c.bot = tgBot
	return c, nil
}

// SetHandler installs the event handler.
func (c *Client) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Transport returns the outbound side of the client.
func (c *Client) Transport() *Transport {
	return NewTransport(c.bot)
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

func (c *Client) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	ev, ok := EventFromUpdate(update)
	if !ok {
		c.logger.WithFields(logging.Fields{
			"event":     "telegram_update_skipped",
			"update_id": update.ID,
		}).Debug("ignoring unsupported update")
		return
	}

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()

	if h == nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_update_dropped",
			"user_id": ev.UserID,
		}).Warn("no handler installed, dropping update")
		return
	}

	h.Dispatch(ctx, ev)
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}
