// Package workflow orchestrates the multi-step operations that touch the
// chat platform, the local store and the rules backend together:
// relocating players between channels and advancing campaign time.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store"
)

// MoveBackend is the backend surface the relocation workflow needs beyond
// what the reconcilers already cover.
type MoveBackend interface {
	PatchCampaign(ctx context.Context, id int64, fields map[string]any) error
	PatchCharacter(ctx context.Context, id int64, fields map[string]any) error
}

// Mover relocates players and their backend characters between channels
// and campaigns.
type Mover struct {
	users         *reconcile.Users
	channels      *reconcile.Channels
	store         store.Store
	backend       MoveBackend
	platform      chat.Platform
	worldCategory string
	adminRole     string
	log           zerolog.Logger
}

// NewMover creates the relocation workflow. worldCategory names the
// channel category holding shared world channels; adminRole keeps access
// to every destination.
func NewMover(u *reconcile.Users, c *reconcile.Channels, s store.Store, b MoveBackend, p chat.Platform, worldCategory, adminRole string, log zerolog.Logger) *Mover {
	return &Mover{
		users:         u,
		channels:      c,
		store:         s,
		backend:       b,
		platform:      p,
		worldCategory: worldCategory,
		adminRole:     adminRole,
		log:           log.With().Str("component", "workflow.move").Logger(),
	}
}

// MoveRequest describes one relocation batch.
type MoveRequest struct {
	// Destination is a channel mention or free-text name; a missing
	// channel is created in the world category.
	Destination string
	// Players are user references resolved one by one; failures skip
	// that player only.
	Players []string
	// Topic seeds the destination channel's topic when it is created.
	Topic string
	// Date optionally overrides the destination campaign's clock.
	Date *time.Time
	// Source is the channel the command was issued in.
	Source chat.Channel
	// Actor is the administrator running the move.
	Actor *model.User
}

// MoveReport summarizes what a relocation did.
type MoveReport struct {
	Destination *model.Channel
	Arrived     []*model.User
	Skipped     []string
}

// ChannelName normalizes a free-text destination to a chat channel name.
func ChannelName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("#", "", " ", "-", "_", "-").Replace(s)
}

// Move runs the relocation workflow. Per-player failures are skipped and
// logged; archival failures suppress only the archival step.
func (m *Mover) Move(ctx context.Context, req MoveRequest) (*MoveReport, error) {
	// 1. Destination channel at the platform level, created on demand in
	// the world category with general read access denied.
	var destChat chat.Channel
	if id, ok := chat.ExtractID(req.Destination); ok {
		c, err := m.platform.ChannelByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("destination %s: %w", id, model.ErrNotFound)
		}
		destChat = c
	} else {
		name := ChannelName(req.Destination)
		if c, ok := m.platform.FindChannel(ctx, name); ok {
			destChat = c
		} else {
			c, err := m.platform.CreateChannel(ctx, req.Source.GuildID, name, m.worldCategory, req.Topic)
			if err != nil {
				return nil, err
			}
			destChat = c
		}
	}

	// 2. The source only counts when it lives in the world category.
	var src *model.Channel
	if req.Source.CategoryName == m.worldCategory {
		var err error
		src, err = m.channels.Reconcile(ctx, req.Source, req.Actor, nil)
		if err != nil {
			return nil, err
		}
	}

	// 3. Destination reconciliation, then the conditional clock transfer:
	// the source date only moves over when nobody occupies the
	// destination yet and the clocks differ, so an in-progress campaign
	// never gets clobbered by a stale override.
	dst, err := m.channels.Reconcile(ctx, destChat, req.Actor, req.Date)
	if err != nil {
		return nil, err
	}
	occupants, err := m.store.Users().ListByChannel(ctx, dst.ID)
	if err != nil {
		return nil, err
	}
	if src != nil && len(occupants) == 0 && src.GameDate != nil &&
		(dst.GameDate == nil || !dst.GameDate.Equal(*src.GameDate)) {
		date := *src.GameDate
		if err := m.store.Channels().SetGameDate(ctx, dst.ID, date); err != nil {
			return nil, err
		}
		dst.GameDate = &date
		iso := date.Format("2006-01-02T15:04:05")
		fields := map[string]any{"start_game_date": iso, "current_game_date": iso}
		if err := m.backend.PatchCampaign(ctx, dst.CampaignID, fields); err != nil {
			m.log.Warn().Err(err).Int64("campaign", dst.CampaignID).Msg("clock transfer patch failed")
		}
	}

	// 4. Wipe shared history before the new arrivals can read it, and
	// preserve it privately for the people who were already there.
	m.archiveAndPurge(ctx, destChat, occupants)

	// 5. Relocate each player independently.
	report := &MoveReport{Destination: dst}
	leaving := map[string][]*model.User{}
	for _, ref := range req.Players {
		subj, err := m.users.Resolve(ctx, ref)
		if err != nil {
			m.log.Warn().Err(err).Str("player", ref).Msg("player not found, skipped")
			report.Skipped = append(report.Skipped, ref)
			continue
		}
		player := subj.User
		if player == nil || player.CharacterID == 0 {
			m.log.Warn().Str("player", ref).Msg("player has no character, skipped")
			report.Skipped = append(report.Skipped, ref)
			continue
		}

		if player.ChannelID != "" && player.ChannelID != dst.ID {
			m.departOldChannel(ctx, player, destChat, leaving)
		}

		if err := m.store.Users().SetChannel(ctx, player.ID, dst.ID); err != nil {
			m.log.Warn().Err(err).Str("player", player.ID).Msg("channel update failed, skipped")
			report.Skipped = append(report.Skipped, ref)
			continue
		}
		player.ChannelID = dst.ID
		if err := m.platform.GrantAccess(ctx, dst.ID, player.ID); err != nil {
			m.log.Warn().Err(err).Str("player", player.ID).Msg("destination access grant failed")
		}
		if err := m.backend.PatchCharacter(ctx, player.CharacterID, map[string]any{"campaign": dst.CampaignID}); err != nil {
			m.log.Warn().Err(err).Int64("character", player.CharacterID).Msg("campaign reassignment failed")
		}
		report.Arrived = append(report.Arrived, player)
	}

	// 6. The administrative role keeps eyes on the destination.
	if err := m.platform.GrantRoleAccess(ctx, destChat.GuildID, dst.ID, m.adminRole); err != nil {
		m.log.Warn().Err(err).Str("channel", dst.ID).Msg("admin role access grant failed")
	}

	// 7. One departure notice per distinct source, one combined arrival
	// notice.
	for oldID, users := range leaving {
		verb := "leaves"
		if len(users) > 1 {
			verb = "leave"
		}
		msg := fmt.Sprintf("📤 %s %s <#%s>.", mentions(users), verb, oldID)
		if err := m.platform.Send(ctx, oldID, msg); err != nil {
			m.log.Warn().Err(err).Str("channel", oldID).Msg("departure notice failed")
		}
	}
	if len(report.Arrived) > 0 {
		verb := "arrives"
		if len(report.Arrived) > 1 {
			verb = "arrive"
		}
		msg := fmt.Sprintf("📥 %s %s in <#%s>.", mentions(report.Arrived), verb, dst.ID)
		if err := m.platform.Send(ctx, dst.ID, msg); err != nil {
			m.log.Warn().Err(err).Str("channel", dst.ID).Msg("arrival notice failed")
		}
	}
	return report, nil
}

// archiveAndPurge wipes the destination history when it has live members,
// delivering the transcript to every occupant owning a private channel.
// Failures here never abort the relocation.
func (m *Mover) archiveAndPurge(ctx context.Context, dest chat.Channel, occupants []*model.User) {
	members, err := m.platform.ChannelMembers(ctx, dest.ID)
	if err != nil || len(members) == 0 {
		return
	}
	deleted, err := m.platform.Purge(ctx, dest.ID)
	if err != nil {
		m.log.Warn().Err(err).Str("channel", dest.ID).Msg("history purge failed")
		return
	}
	if len(deleted) == 0 {
		return
	}
	transcript, err := m.platform.ExportTranscript(ctx, dest, deleted)
	if err != nil || transcript == "" {
		m.log.Warn().Err(err).Str("channel", dest.ID).Msg("transcript export failed")
		return
	}
	notice := fmt.Sprintf(
		"🚪 One or more players entered **#%s**, the channel history was purged for discretion.\n"+
			"⌚ You can find the message history below:", dest.Name)
	for _, occ := range occupants {
		if occ.PrivateChannelID == "" {
			continue
		}
		if err := m.platform.SendFile(ctx, occ.PrivateChannelID, notice, dest.Name+".html", []byte(transcript)); err != nil {
			m.log.Warn().Err(err).Str("user", occ.ID).Msg("transcript delivery failed")
		}
	}
}

// departOldChannel hands the player a transcript of the channel they are
// leaving, then revokes their explicit access there.
func (m *Mover) departOldChannel(ctx context.Context, player *model.User, dest chat.Channel, leaving map[string][]*model.User) {
	old, err := m.platform.ChannelByID(ctx, player.ChannelID)
	if err != nil {
		return
	}
	if player.PrivateChannelID != "" {
		transcript, err := m.platform.ExportChannel(ctx, old)
		if err == nil && transcript != "" {
			notice := fmt.Sprintf(
				"🚪 You have been moved from **#%s** to **#%s**.\n"+
					"⌚ You can find the message history below:", old.Name, dest.Name)
			if err := m.platform.SendDirectFile(ctx, player.ID, notice, old.Name+".html", []byte(transcript)); err != nil {
				m.log.Warn().Err(err).Str("user", player.ID).Msg("departure transcript delivery failed")
			}
		}
	}
	if err := m.platform.RevokeAccess(ctx, old.ID, player.ID); err != nil {
		m.log.Warn().Err(err).Str("user", player.ID).Str("channel", old.ID).Msg("access revocation failed")
	}
	leaving[old.ID] = append(leaving[old.ID], player)
}

func mentions(users []*model.User) string {
	parts := make([]string, len(users))
	for i, u := range users {
		parts[i] = "<@" + u.ID + ">"
	}
	return strings.Join(parts, ", ")
}
