// Package dispatch routes inbound chat events through the access checks to the
// catalog navigator or the admin workflows.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"course_catalog_bot/internal/admin"
	"course_catalog_bot/internal/callback"
	"course_catalog_bot/internal/catalog"
	"course_catalog_bot/internal/chat"
	"course_catalog_bot/internal/logging"
	"course_catalog_bot/internal/membership"
	"course_catalog_bot/internal/metrics"
)

const (
	disabledText     = "⛔️ The bot is temporarily disabled. Please try again later."
	bannedText       = "🚫 You are banned from using this bot."
	unauthorizedText = "⛔️ You are not authorized to use this command."
	joinText         = "📢 To use this bot, please join the following channels first:"
	notJoinedText    = "❌ You have not joined all channels yet! Join them and press the button again."
	joinedText       = "✅ Thanks! You can now use the bot."
	failureText      = "❌ Something went wrong, please try again."
)

// Switch reports the global enablement flag.
type Switch interface {
	BotEnabled(ctx context.Context) (bool, error)
}

// BanList reports the banned flag of a user.
type BanList interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// Registrar records every sender and caches gate outcomes.
type Registrar interface {
	EnsureUser(ctx context.Context, userID int64, username string) (bool, error)
	SetMembership(ctx context.Context, userID int64, satisfied bool) error
}

// Acknowledger answers button presses so the client stops its spinner.
type Acknowledger interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Recorder counts events and access denials.
type Recorder interface {
	Event(kind string)
	Gated(reason string)
}

// Deps wires a Dispatcher.
type Deps struct {
	Switch       Switch
	Bans         BanList
	Registrar    Registrar
	Gate         *membership.Gate
	Navigator    *catalog.Navigator
	Admin        *admin.Workflow
	Messenger    chat.Messenger
	Acknowledger Acknowledger
	Metrics      Recorder
	Operators    []int64
	Logger       *logrus.Entry
}

// Dispatcher is the single entry point for inbound events. It is safe for
// concurrent use. Events of one user must be delivered in arrival order, which
// the telegram client guarantees by handling updates sequentially.
type Dispatcher struct {
	toggle    Switch
	bans      BanList
	registrar Registrar
	gate      *membership.Gate
	navigator *catalog.Navigator
	admin     *admin.Workflow
	messenger chat.Messenger
	ack       Acknowledger
	metrics   Recorder
	operators map[int64]struct{}
	logger    *logrus.Entry
}

// New constructs a Dispatcher.
func New(deps Deps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	operators := make(map[int64]struct{}, len(deps.Operators))
	for _, id := range deps.Operators {
		operators[id] = struct{}{}
	}

	return &Dispatcher{
		toggle:    deps.Switch,
		bans:      deps.Bans,
		registrar: deps.Registrar,
		gate:      deps.Gate,
		navigator: deps.Navigator,
		admin:     deps.Admin,
		messenger: deps.Messenger,
		ack:       deps.Acknowledger,
		metrics:   deps.Metrics,
		operators: operators,
		logger:    logger,
	}
}

// IsOperator reports whether userID is on the operator allow-list.
func (d *Dispatcher) IsOperator(userID int64) bool {
	_, ok := d.operators[userID]
	return ok
}

// Dispatch processes one event to completion. Failures are logged and
// reported to the sender; a panic is contained to the event that caused it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) {
	operator := d.IsOperator(ev.UserID)
	log := logging.Enrich(d.logger, logging.Context{
		UserID:   ev.UserID,
		ChatID:   ev.ChatID,
		Event:    "dispatch_" + string(ev.Kind),
		Action:   action(ev),
		Operator: operator,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logging.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("recovered from panic while handling event")
		}
	}()

	if d.metrics != nil {
		d.metrics.Event(string(ev.Kind))
	}

	if ev.Kind == chat.EventCallback && ev.CallbackID != "" && d.ack != nil {
		if err := d.ack.AnswerCallback(ctx, ev.CallbackID); err != nil {
			log.WithError(err).Warn("failed to answer callback")
		}
	}

	if err := d.dispatch(ctx, ev, operator, log); err != nil {
		log.WithError(err).Error("failed to handle event")
		if sendErr := d.messenger.Send(ctx, ev.ChatID, failureText, nil); sendErr != nil {
			log.WithError(sendErr).Warn("failed to report failure to user")
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev chat.Event, operator bool, log *logrus.Entry) error {
	if !operator {
		enabled, err := d.toggle.BotEnabled(ctx)
		if err != nil {
			return fmt.Errorf("read bot enablement: %w", err)
		}
		if !enabled {
			return d.deny(ctx, ev, metrics.ReasonDisabled, disabledText, log)
		}
	}

	banned, err := d.bans.IsBanned(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("read banned flag: %w", err)
	}
	if banned {
		return d.deny(ctx, ev, metrics.ReasonBanned, bannedText, log)
	}

	if _, err := d.registrar.EnsureUser(ctx, ev.UserID, ev.Username); err != nil {
		log.WithError(err).Warn("failed to register user")
	}

	switch ev.Kind {
	case chat.EventCommand:
		return d.onCommand(ctx, ev, operator, log)
	case chat.EventCallback:
		return d.onCallback(ctx, ev, operator, log)
	case chat.EventText:
		if !operator {
			return nil
		}
		handled, err := d.admin.HandleText(ctx, ev)
		if err == nil && !handled {
			log.Debug("no pending action for operator text")
		}
		return err
	case chat.EventDocument:
		if !operator {
			return nil
		}
		handled, err := d.admin.HandleDocument(ctx, ev)
		if err == nil && !handled {
			log.Debug("no pending action for operator document")
		}
		return err
	default:
		return nil
	}
}

func (d *Dispatcher) onCommand(ctx context.Context, ev chat.Event, operator bool, log *logrus.Entry) error {
	switch ev.Command {
	case "start":
		if err := d.admin.Disarm(ctx, ev.UserID); err != nil {
			log.WithError(err).Warn("failed to disarm pending action")
		}
		if !operator {
			passed, err := d.passGate(ctx, ev, log)
			if err != nil || !passed {
				return err
			}
		}
		return d.navigator.ShowRoot(ctx, chat.Target{ChatID: ev.ChatID}, operator)
	case "admin":
		if !operator {
			return d.deny(ctx, ev, metrics.ReasonUnauthorized, unauthorizedText, log)
		}
		return d.admin.HandleCommand(ctx, ev)
	default:
		if err := d.admin.Disarm(ctx, ev.UserID); err != nil {
			log.WithError(err).Warn("failed to disarm pending action")
		}
		log.Debug("ignoring unknown command")
		return nil
	}
}

func (d *Dispatcher) onCallback(ctx context.Context, ev chat.Event, operator bool, log *logrus.Entry) error {
	action, ok := callback.Parse(ev.Text)
	if !ok {
		log.Debug("ignoring unknown callback")
		return nil
	}

	if action.Privileged() {
		if !operator {
			return d.deny(ctx, ev, metrics.ReasonUnauthorized, unauthorizedText, log)
		}
		return d.admin.HandleAction(ctx, ev, action)
	}

	if action.Kind == callback.CheckChannels {
		return d.recheck(ctx, ev, operator, log)
	}

	if !operator {
		passed, err := d.passGate(ctx, ev, log)
		if err != nil || !passed {
			return err
		}
	}

	target := ev.Target()
	switch action.Kind {
	case callback.BackToYears:
		return d.navigator.ShowRoot(ctx, target, operator)
	case callback.Stats:
		return d.navigator.ShowStats(ctx, target)
	case callback.Year:
		return d.navigator.ShowYear(ctx, target, action.ID)
	case callback.Term:
		return d.navigator.ShowTerm(ctx, target, action.ID)
	case callback.Course:
		return d.navigator.SendCourseFiles(ctx, ev.ChatID, action.ID)
	default:
		return nil
	}
}

// passGate runs the membership check. On failure the join prompt is sent and
// false is returned; on success the cached flag is refreshed.
func (d *Dispatcher) passGate(ctx context.Context, ev chat.Event, log *logrus.Entry) (bool, error) {
	if !d.gate.Enabled() {
		return true, nil
	}

	result := d.gate.Check(ctx, ev.UserID)
	d.cacheMembership(ctx, ev.UserID, result.Satisfied, log)
	if result.Satisfied {
		return true, nil
	}

	if d.metrics != nil {
		d.metrics.Gated(metrics.ReasonMembership)
	}
	log.WithField("outstanding", result.Outstanding).Info("membership gate not satisfied")
	return false, d.messenger.Send(ctx, ev.ChatID, joinText, d.gate.JoinKeyboard(ctx, result.Outstanding))
}

// recheck serves the "I've joined" button.
func (d *Dispatcher) recheck(ctx context.Context, ev chat.Event, operator bool, log *logrus.Entry) error {
	result := d.gate.Check(ctx, ev.UserID)
	d.cacheMembership(ctx, ev.UserID, result.Satisfied, log)

	if !result.Satisfied {
		if d.metrics != nil {
			d.metrics.Gated(metrics.ReasonMembership)
		}
		kb := d.gate.JoinKeyboard(ctx, result.Outstanding)
		return chat.Render(ctx, d.messenger, ev.Target(), notJoinedText, kb)
	}

	if err := chat.Render(ctx, d.messenger, ev.Target(), joinedText, nil); err != nil {
		return err
	}
	return d.navigator.ShowRoot(ctx, chat.Target{ChatID: ev.ChatID}, operator)
}

func (d *Dispatcher) cacheMembership(ctx context.Context, userID int64, satisfied bool, log *logrus.Entry) {
	if err := d.registrar.SetMembership(ctx, userID, satisfied); err != nil {
		log.WithError(err).Warn("failed to cache membership result")
	}
}

// deny sends an access notice. Access denials are expected traffic and are
// not logged as failures.
func (d *Dispatcher) deny(ctx context.Context, ev chat.Event, reason, text string, log *logrus.Entry) error {
	if d.metrics != nil {
		d.metrics.Gated(reason)
	}
	log.WithField("reason", reason).Debug("event denied")
	return d.messenger.Send(ctx, ev.ChatID, text, nil)
}

func action(ev chat.Event) string {
	switch ev.Kind {
	case chat.EventCommand:
		return "/" + ev.Command
	case chat.EventCallback:
		return ev.Text
	default:
		return ""
	}
}
