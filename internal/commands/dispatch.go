package commands

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
)

// Invocation carries everything a handler needs about one command message.
type Invocation struct {
	Ctx     context.Context
	Message chat.Message
	Channel chat.Channel
	Actor   *model.User
	// Command is the full command as typed, prefix included.
	Command string
	Args    []string
}

// HandlerFunc runs one command. A returned error is reported privately to
// the invoker and logged; it never reaches the channel.
type HandlerFunc func(*Invocation) error

type registration struct {
	fn        HandlerFunc
	adminOnly bool
}

// Dispatcher routes inbound guild messages to command handlers. Every
// guild message, command or not, passes through the identity reconciler
// first. Handler panics are contained here; the process never dies on a
// command.
type Dispatcher struct {
	prefix    string
	adminRole string
	platform  chat.Platform
	users     *reconcile.Users
	log       zerolog.Logger
	handlers  map[string]registration
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(prefix, adminRole string, p chat.Platform, users *reconcile.Users, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		prefix:    prefix,
		adminRole: adminRole,
		platform:  p,
		users:     users,
		log:       log.With().Str("component", "commands").Logger(),
		handlers:  map[string]registration{},
	}
}

// Register binds a command name to a handler. adminOnly commands are
// silently ignored for users without the administrative role.
func (d *Dispatcher) Register(name string, adminOnly bool, fn HandlerFunc) {
	d.handlers[name] = registration{fn: fn, adminOnly: adminOnly}
}

// Dispatch processes one inbound message. Bot and direct messages are
// ignored; everything else reconciles the author before any command runs.
func (d *Dispatcher) Dispatch(ctx context.Context, msg chat.Message) {
	if msg.Author.Bot || msg.GuildID == "" {
		return
	}
	actor, err := d.users.Reconcile(ctx, msg.Author)
	if err != nil {
		d.log.Warn().Err(err).Str("user", msg.Author.ID).Msg("author reconciliation failed")
		return
	}

	if !strings.HasPrefix(msg.Content, d.prefix) {
		return
	}
	tokens := SplitArgs(strings.TrimPrefix(msg.Content, d.prefix))
	if len(tokens) == 0 {
		return
	}
	name := strings.ToLower(tokens[0])
	reg, ok := d.handlers[name]
	if !ok {
		return
	}

	// The command text disappears from the channel whether or not the
	// handler succeeds.
	if err := d.platform.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		d.log.Warn().Err(err).Str("message", msg.ID).Msg("command message delete failed")
	}
	if reg.adminOnly && !d.platform.HasRole(ctx, msg.GuildID, msg.Author.ID, d.adminRole) {
		return
	}

	channel, err := d.platform.ChannelByID(ctx, msg.ChannelID)
	if err != nil {
		d.log.Warn().Err(err).Str("channel", msg.ChannelID).Msg("channel lookup failed")
		return
	}
	inv := &Invocation{
		Ctx:     ctx,
		Message: msg,
		Channel: channel,
		Actor:   actor,
		Command: d.prefix + name,
		Args:    tokens[1:],
	}
	d.run(inv, reg.fn)
}

// run executes the handler inside the failure boundary: errors and panics
// are reported privately with the offending command and channel, logged,
// and swallowed.
func (d *Dispatcher) run(inv *Invocation, fn HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("channel", inv.Channel.Name).
				Str("command", inv.Message.Content).
				Str("stack", string(debug.Stack())).
				Msgf("command panic: %v", r)
			d.report(inv, fmt.Errorf("%v", r))
		}
	}()
	if err := fn(inv); err != nil {
		d.log.Error().
			Err(err).
			Str("channel", inv.Channel.Name).
			Str("command", inv.Message.Content).
			Msg("command failed")
		d.report(inv, err)
	}
}

func (d *Dispatcher) report(inv *Invocation, err error) {
	text := fmt.Sprintf("⚠️ **Error:** %v (`%s` on `%s`)", err, inv.Message.Content, inv.Channel.Name)
	if derr := d.platform.SendDirect(inv.Ctx, inv.Actor.ID, text); derr != nil {
		d.log.Warn().Err(derr).Str("user", inv.Actor.ID).Msg("error report failed")
	}
}
