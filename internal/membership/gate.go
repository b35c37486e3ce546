// Package membership decides whether a user has joined every required channel
// and renders the join prompt for the channels still outstanding.
package membership

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"course_catalog_bot/internal/callback"
	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/logging"
)

const maxConcurrentLookups = 4

// Statuses that satisfy a channel requirement.
const (
	StatusMember        = "member"
	StatusAdministrator = "administrator"
	StatusCreator       = "creator"
)

// Channel describes a required channel as reported by the transport.
type Channel struct {
	ID         int64
	Title      string
	Username   string
	InviteLink string
}

// MemberLookup resolves a user's status in a channel.
type MemberLookup interface {
	MemberStatus(ctx context.Context, channelID, userID int64) (string, error)
}

// ChannelResolver resolves channel details used to label join buttons.
type ChannelResolver interface {
	ChannelInfo(ctx context.Context, channelID int64) (Channel, error)
}

// Result reports the outcome of a membership check.
type Result struct {
	Satisfied bool
	// Outstanding lists required channels the user has not joined or whose
	// lookup failed, in configuration order.
	Outstanding []int64
}

// Gate checks membership of a fixed set of required channels.
type Gate struct {
	lookup   MemberLookup
	resolver ChannelResolver
	channels []int64
	logger   *logrus.Entry
}

// NewGate constructs a Gate. An empty channel list is always satisfied.
func NewGate(lookup MemberLookup, resolver ChannelResolver, channels []int64, logger *logrus.Entry) *Gate {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Gate{
		lookup:   lookup,
		resolver: resolver,
		channels: append([]int64(nil), channels...),
		logger:   logger,
	}
}

// Enabled reports whether any channels are required.
func (g *Gate) Enabled() bool {
	return g != nil && len(g.channels) > 0
}

// IsSatisfied reports whether userID holds member, administrator or creator
// status in every required channel.
func (g *Gate) IsSatisfied(ctx context.Context, userID int64) bool {
	return g.Check(ctx, userID).Satisfied
}

// Check queries every channel and records which ones are outstanding. Lookup
// failures count as not joined.
func (g *Gate) Check(ctx context.Context, userID int64) Result {
	if !g.Enabled() {
		return Result{Satisfied: true}
	}
	if g.lookup == nil {
		return Result{Outstanding: append([]int64(nil), g.channels...)}
	}

	joined := make([]bool, len(g.channels))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentLookups)

	for i, channelID := range g.channels {
		i, channelID := i, channelID
		group.Go(func() error {
			status, err := g.lookup.MemberStatus(groupCtx, channelID, userID)
			if err != nil {
				g.logger.WithFields(logging.Fields{
					"event":      "membership_lookup_failed",
					"user_id":    userID,
					"channel_id": channelID,
				}).WithError(err).Warn("channel membership lookup failed")
				return nil
			}

			mu.Lock()
			joined[i] = satisfies(status)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	result := Result{Satisfied: true}
	for i, channelID := range g.channels {
		if !joined[i] {
			result.Satisfied = false
			result.Outstanding = append(result.Outstanding, channelID)
		}
	}

	return result
}

// JoinKeyboard renders one link button per channel plus the verification
// button. A channel whose details cannot be resolved still gets a button with
// a generic label.
func (g *Gate) JoinKeyboard(ctx context.Context, channelIDs []int64) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(channelIDs)+1)

	for _, channelID := range channelIDs {
		info := Channel{ID: channelID}
		if g.resolver != nil {
			resolved, err := g.resolver.ChannelInfo(ctx, channelID)
			if err != nil {
				g.logger.WithFields(logging.Fields{
					"event":      "channel_resolve_failed",
					"channel_id": channelID,
				}).WithError(err).Warn("could not resolve channel details")
			} else {
				info = resolved
				info.ID = channelID
			}
		}
		buttons = append(buttons, chat.LinkButton(joinLabel(info), JoinURL(info)))
	}

	buttons = append(buttons, chat.Button("✅ I've joined", callback.Plain(callback.CheckChannels).String()))
	return chat.Keyboard(buttons...)
}

// JoinURL prefers the public username, then the invite link, then the
// internal t.me/c link derived from the chat id.
func JoinURL(ch Channel) string {
	if username := strings.TrimPrefix(strings.TrimSpace(ch.Username), "@"); username != "" {
		return "https://t.me/" + username
	}
	if ch.InviteLink != "" {
		return ch.InviteLink
	}

	raw := strconv.FormatInt(ch.ID, 10)
	raw = strings.TrimPrefix(raw, "-100")
	raw = strings.TrimPrefix(raw, "-")
	return "https://t.me/c/" + raw
}

func joinLabel(ch Channel) string {
	if title := strings.TrimSpace(ch.Title); title != "" {
		return "Join " + title
	}
	return "Join channel"
}

func satisfies(status string) bool {
	switch status {
	case StatusMember, StatusAdministrator, StatusCreator:
		return true
	default:
		return false
	}
}
