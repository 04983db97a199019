package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/commands"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store"
)

// CampaignBackend is the slice of the game backend the event cascade needs.
type CampaignBackend interface {
	DeleteCampaign(ctx context.Context, id int64) error
}

// Events routes gateway events into the reconcilers and the command
// dispatcher.
type Events struct {
	session    *Session
	dispatcher *commands.Dispatcher
	users      *reconcile.Users
	channels   *reconcile.Channels
	store      store.Store
	backend    CampaignBackend
	log        zerolog.Logger
}

func NewEvents(s *Session, d *commands.Dispatcher, users *reconcile.Users, channels *reconcile.Channels, st store.Store, b CampaignBackend, log zerolog.Logger) *Events {
	return &Events{
		session:    s,
		dispatcher: d,
		users:      users,
		channels:   channels,
		store:      st,
		backend:    b,
		log:        log.With().Str("component", "chat.events").Logger(),
	}
}

// Bind registers the gateway handlers. Call before Session.Open.
func (e *Events) Bind() {
	e.session.dg.AddHandler(e.onMessageCreate)
	e.session.dg.AddHandler(e.onGuildMemberUpdate)
	e.session.dg.AddHandler(e.onChannelUpdate)
	e.session.dg.AddHandler(e.onChannelDelete)
	e.session.dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		e.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	})
}

func (e *Events) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	e.dispatcher.Dispatch(context.Background(), e.session.toMessage(m.Message))
}

// onGuildMemberUpdate keeps local names in sync with nickname changes.
func (e *Events) onGuildMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.User == nil || m.User.Bot {
		return
	}
	ctx := context.Background()
	if _, err := e.users.Reconcile(ctx, e.session.toUser(m.GuildID, m.User, m.Member)); err != nil {
		e.log.Warn().Err(err).Str("user", m.User.ID).Msg("member update reconcile failed")
	}
}

// onChannelUpdate propagates renames of channels the bot already tracks.
// Untracked channels stay untracked until a command touches them.
func (e *Events) onChannelUpdate(_ *discordgo.Session, c *discordgo.ChannelUpdate) {
	ctx := context.Background()
	if !e.channels.Tracked(ctx, c.ID) {
		return
	}
	if _, err := e.channels.Reconcile(ctx, e.session.toChannel(c.Channel), nil, nil); err != nil {
		e.log.Warn().Err(err).Str("channel", c.ID).Msg("channel update reconcile failed")
	}
}

// onChannelDelete tears down everything attached to the channel: the
// backend campaign, the occupants' channel references and the local
// record. Backend deletion is best effort.
func (e *Events) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	ctx := context.Background()
	rec, err := e.store.Channels().Get(ctx, c.ID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			e.log.Warn().Err(err).Str("channel", c.ID).Msg("channel delete lookup failed")
		}
		return
	}
	if rec.CampaignID != 0 {
		if err := e.backend.DeleteCampaign(ctx, rec.CampaignID); err != nil {
			e.log.Warn().Err(err).Int64("campaign", rec.CampaignID).Msg("campaign delete failed")
		}
	}
	if err := e.store.Users().ClearChannel(ctx, c.ID); err != nil {
		e.log.Warn().Err(err).Str("channel", c.ID).Msg("occupant cleanup failed")
	}
	if err := e.store.Channels().Delete(ctx, c.ID); err != nil {
		e.log.Warn().Err(err).Str("channel", c.ID).Msg("channel record delete failed")
	}
	e.channels.Forget(c.ID)
	e.log.Info().Str("channel", c.ID).Str("name", rec.Name).Msg("channel removed")
}
