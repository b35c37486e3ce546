package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/config"
	"course_catalog_bot/internal/membership"
)

type fakeBot struct {
	startedWith context.Context

	sent     []*bot.SendMessageParams
	edited   []*bot.EditMessageTextParams
	docs     []*bot.SendDocumentParams
	answered []*bot.AnswerCallbackQueryParams

	member  *models.ChatMember
	chat    *models.ChatFullInfo
	err     error
	editErr error
}

func (f *fakeBot) Start(ctx context.Context) {
	f.startedWith = ctx
}

func (f *fakeBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, f.err
}

func (f *fakeBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	f.edited = append(f.edited, params)
	return &models.Message{}, f.editErr
}

func (f *fakeBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	f.docs = append(f.docs, params)
	return &models.Message{}, f.err
}

func (f *fakeBot) GetChatMember(context.Context, *bot.GetChatMemberParams) (*models.ChatMember, error) {
	return f.member, f.err
}

func (f *fakeBot) GetChat(context.Context, *bot.GetChatParams) (*models.ChatFullInfo, error) {
	return f.chat, f.err
}

func (f *fakeBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.answered = append(f.answered, params)
	return true, f.err
}

type recordingHandler struct {
	events []chat.Event
}

func (h *recordingHandler) Dispatch(_ context.Context, ev chat.Event) {
	h.events = append(h.events, ev)
}

func TestNewClientCreatesBot(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	var gotToken string
	var gotOptions []bot.Option
	b := &fakeBot{}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		gotToken = token
		gotOptions = options
		return b, nil
	}

	cfg := config.Config{BotToken: "token-123"}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(cfg, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if client == nil || client.bot == nil {
		t.Fatalf("expected client and bot to be initialized")
	}
	if gotToken != cfg.BotToken {
		t.Fatalf("expected token %q, got %q", cfg.BotToken, gotToken)
	}
	if len(gotOptions) != 4 {
		t.Fatalf("expected 4 bot options (allowed updates, sequential handlers, default handler, error handler), got %d", len(gotOptions))
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(config.Config{BotToken: "  "}, nil); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestNewClientPropagatesBotError(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	expected := errors.New("boom")
	createBot = func(string, ...bot.Option) (botAPI, error) {
		return nil, expected
	}

	_, err := NewClient(config.Config{BotToken: "token"}, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestClientStartLogsAndUsesContext(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	fb := &fakeBot{}
	client := &Client{
		bot:    fb,
		logger: logrus.NewEntry(hookLogger),
	}

	ctx := context.Background()
	client.Start(ctx)

	if fb.startedWith != ctx {
		t.Fatalf("expected bot to start with provided context")
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries (start/stop), got %d", len(entries))
	}
	if entries[0].Data["event"] != "telegram_listen" {
		t.Fatalf("expected start log event, got %v", entries[0].Data["event"])
	}
	if entries[1].Data["event"] != "telegram_stopped" {
		t.Fatalf("expected stop log event, got %v", entries[1].Data["event"])
	}
}

func privateMessage(text string) *models.Message {
	return &models.Message{
		ID:   5,
		From: &models.User{ID: 10, Username: "alice"},
		Chat: models.Chat{ID: 10, Type: models.ChatTypePrivate},
		Text: text,
	}
}

func TestEventFromUpdate(t *testing.T) {
	doc := privateMessage("")
	doc.Caption = " Lecture 1 "
	doc.Document = &models.Document{FileID: "file-1", FileName: "l1.pdf"}

	group := privateMessage("/start")
	group.Chat.Type = models.ChatTypeSupergroup

	tests := []struct {
		name   string
		update *models.Update
		want   chat.Event
		ok     bool
	}{
		{
			name:   "command with bot suffix and args",
			update: &models.Update{Message: privateMessage("/Admin@catalog_bot ban 555")},
			want: chat.Event{
				Kind: chat.EventCommand, UserID: 10, Username: "alice", ChatID: 10,
				Command: "admin", Args: []string{"ban", "555"}, Text: "/Admin@catalog_bot ban 555",
			},
			ok: true,
		},
		{
			name:   "plain text",
			update: &models.Update{Message: privateMessage("  Year 3 ")},
			want:   chat.Event{Kind: chat.EventText, UserID: 10, Username: "alice", ChatID: 10, Text: "Year 3"},
			ok:     true,
		},
		{
			name:   "document",
			update: &models.Update{Message: doc},
			want: chat.Event{
				Kind: chat.EventDocument, UserID: 10, Username: "alice", ChatID: 10,
				Text: "Lecture 1", Document: &chat.Document{Handle: "file-1", FileName: "l1.pdf"},
			},
			ok: true,
		},
		{
			name: "callback",
			update: &models.Update{CallbackQuery: &models.CallbackQuery{
				ID:   "cb-1",
				From: models.User{ID: 12},
				Data: "year_3",
				Message: models.MaybeInaccessibleMessage{
					Type:    models.MaybeInaccessibleMessageTypeMessage,
					Message: &models.Message{ID: 44, Chat: models.Chat{ID: 22}},
				},
			}},
			want: chat.Event{Kind: chat.EventCallback, UserID: 12, ChatID: 22, MessageID: 44, CallbackID: "cb-1", Text: "year_3"},
			ok:   true,
		},
		{
			name: "callback on inaccessible message",
			update: &models.Update{CallbackQuery: &models.CallbackQuery{
				ID:   "cb-2",
				From: models.User{ID: 13},
				Data: "stats",
			}},
			want: chat.Event{Kind: chat.EventCallback, UserID: 13, ChatID: 13, CallbackID: "cb-2", Text: "stats"},
			ok:   true,
		},
		{name: "group chat", update: &models.Update{Message: group}},
		{name: "empty text", update: &models.Update{Message: privateMessage("   ")}},
		{name: "edited message", update: &models.Update{EditedMessage: privateMessage("hi")}},
		{name: "nil", update: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EventFromUpdate(tt.update)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientForwardsEventsToHandler(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	client := &Client{bot: &fakeBot{}, logger: logrus.NewEntry(hookLogger)}
	update := &models.Update{Message: privateMessage("/start")}

	client.onUpdate(context.Background(), nil, update)
	if entry := hook.LastEntry(); entry == nil || entry.Data["event"] != "telegram_update_dropped" {
		t.Fatalf("expected drop warning without a handler, got %+v", entry)
	}

	h := &recordingHandler{}
	client.SetHandler(h)
	client.onUpdate(context.Background(), nil, update)
	client.onUpdate(context.Background(), nil, &models.Update{EditedMessage: privateMessage("x")})

	if len(h.events) != 1 || h.events[0].Command != "start" {
		t.Fatalf("expected one start command, got %+v", h.events)
	}
}

type slowHandler struct {
	mu     sync.Mutex
	events []string
	done   chan struct{}
	want   int
}

func (h *slowHandler) Dispatch(_ context.Context, ev chat.Event) {
	if ev.Kind == chat.EventCommand {
		time.Sleep(100 * time.Millisecond)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev.Text)
	if len(h.events) == h.want {
		close(h.done)
	}
}

func (h *slowHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func pollingServer(t *testing.T, updates string) *httptest.Server {
	t.Helper()

	var once sync.Once
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			fmt.Fprint(w, `{"ok":true,"result":true}`)
			return
		}

		served := false
		once.Do(func() {
			served = true
			fmt.Fprintf(w, `{"ok":true,"result":%s}`, updates)
		})
		if served {
			return
		}

		select {
		case <-r.Context().Done():
		case <-release:
		}
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestClientDispatchesUpdatesOfOneUserInArrivalOrder(t *testing.T) {
	srv := pollingServer(t, `[
		{"update_id":1,"message":{"message_id":1,"from":{"id":42},"chat":{"id":42,"type":"private"},"text":"/admin"}},
		{"update_id":2,"message":{"message_id":2,"from":{"id":42},"chat":{"id":42,"type":"private"},"text":"Year 3"}}
	]`)

	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()
	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		options = append(options, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
		return bot.New(token, options...)
	}

	logger, _ := logtest.NewNullLogger()
	client, err := NewClient(config.Config{BotToken: "1:test"}, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	h := &slowHandler{done: make(chan struct{}), want: 2}
	client.SetHandler(h)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		client.Start(ctx)
		close(stopped)
	}()

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for updates, got %v", h.seen())
	}
	cancel()
	<-stopped

	if diff := cmp.Diff([]string{"/admin", "Year 3"}, h.seen()); diff != "" {
		t.Fatalf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestTransportReportsUnchangedEdit(t *testing.T) {
	fb := &fakeBot{editErr: fmt.Errorf("%w, Bad Request: message is not modified", bot.ErrorBadRequest)}
	tr := NewTransport(fb)

	err := tr.Edit(context.Background(), 1, 9, "same", nil)
	if !errors.Is(err, chat.ErrNotModified) {
		t.Fatalf("expected not-modified error, got %v", err)
	}

	fb.editErr = fmt.Errorf("%w, Bad Request: message can't be edited", bot.ErrorBadRequest)
	err = tr.Edit(context.Background(), 1, 9, "other", nil)
	if err == nil || errors.Is(err, chat.ErrNotModified) {
		t.Fatalf("expected a plain edit failure, got %v", err)
	}
}

func TestTransportOmitsNilKeyboard(t *testing.T) {
	fb := &fakeBot{}
	tr := NewTransport(fb)
	ctx := context.Background()

	if err := tr.Send(ctx, 1, "plain", nil); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	kb := chat.Keyboard(chat.Button("a", "stats"))
	if err := tr.Edit(ctx, 1, 9, "menu", kb); err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}

	if fb.sent[0].ReplyMarkup != nil {
		t.Fatalf("expected no reply markup, got %#v", fb.sent[0].ReplyMarkup)
	}
	if fb.edited[0].ReplyMarkup != kb || fb.edited[0].MessageID != 9 {
		t.Fatalf("unexpected edit params: %+v", fb.edited[0])
	}
}

func TestTransportSendsDocumentByHandle(t *testing.T) {
	fb := &fakeBot{}
	if err := NewTransport(fb).SendDocument(context.Background(), 7, "file-1", "Lecture 1"); err != nil {
		t.Fatalf("SendDocument returned error: %v", err)
	}

	params := fb.docs[0]
	input, ok := params.Document.(*models.InputFileString)
	if !ok || input.Data != "file-1" || params.Caption != "Lecture 1" || params.ChatID != int64(7) {
		t.Fatalf("unexpected document params: %+v", params)
	}
}

func TestTransportMembershipQueries(t *testing.T) {
	fb := &fakeBot{
		member: &models.ChatMember{Type: models.ChatMemberTypeAdministrator},
		chat:   &models.ChatFullInfo{Title: "News", Username: "news", InviteLink: "https://t.me/+abc"},
	}
	tr := NewTransport(fb)
	ctx := context.Background()

	status, err := tr.MemberStatus(ctx, -1001, 10)
	if err != nil || status != membership.StatusAdministrator {
		t.Fatalf("expected administrator, got %q err=%v", status, err)
	}

	info, err := tr.ChannelInfo(ctx, -1001)
	if err != nil {
		t.Fatalf("ChannelInfo returned error: %v", err)
	}
	want := membership.Channel{ID: -1001, Title: "News", Username: "news", InviteLink: "https://t.me/+abc"}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("channel mismatch (-want +got):\n%s", diff)
	}

	fb.err = errors.New("chat not found")
	if _, err := tr.MemberStatus(ctx, -1001, 10); !errors.Is(err, fb.err) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if err := tr.AnswerCallback(ctx, "cb"); !errors.Is(err, fb.err) {
		t.Fatalf("expected answer error, got %v", err)
	}
}

func TestErrorHandlerLogs(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	handler := errorHandler(logrus.NewEntry(hookLogger))

	handler(nil)
	handler(errors.New("conflict"))

	entries := hook.AllEntries()
	if len(entries) != 1 || entries[0].Data["event"] != "telegram_error" {
		t.Fatalf("expected one telegram_error entry, got %+v", entries)
	}
}
