package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/store"
)

// TimeBackend advances a campaign's clock and turn order.
type TimeBackend interface {
	AdvanceCampaign(ctx context.Context, id int64, seconds int, resting, reset bool) (*backend.TurnResult, error)
}

// Clock advances in-world time for one channel's campaign or for every
// tracked campaign at once.
type Clock struct {
	store    store.Store
	backend  TimeBackend
	platform chat.Platform
	log      zerolog.Logger
}

// NewClock creates the time advancement orchestrator.
func NewClock(s store.Store, b TimeBackend, p chat.Platform, log zerolog.Logger) *Clock {
	return &Clock{
		store:    s,
		backend:  b,
		platform: p,
		log:      log.With().Str("component", "workflow.time").Logger(),
	}
}

// AdvanceRequest describes one time advancement.
type AdvanceRequest struct {
	Seconds int
	Minutes int
	Hours   int
	// Resting marks the elapsed time as rest.
	Resting bool
	// NextTurn hands the action over to the next character instead of
	// resetting the turn order.
	NextTurn bool
	// All advances every campaign-bound channel instead of just Channel.
	All bool
	// Reason is an optional narrative line prefixed to the report.
	Reason  string
	Channel *model.Channel
}

// Advance moves the clock forward. With All set, each tracked channel is
// advanced independently and one failure never blocks the rest.
func (c *Clock) Advance(ctx context.Context, req AdvanceRequest) error {
	if req.All {
		channels, err := c.store.Channels().ListWithCampaign(ctx)
		if err != nil {
			return err
		}
		for _, ch := range channels {
			if err := c.advanceOne(ctx, ch, req); err != nil {
				c.log.Warn().Err(err).Str("channel", ch.ID).Msg("time advancement failed, skipped")
			}
		}
		return nil
	}
	if req.Channel == nil || req.Channel.CampaignID == 0 {
		return nil
	}
	return c.advanceOne(ctx, req.Channel, req)
}

func (c *Clock) advanceOne(ctx context.Context, ch *model.Channel, req AdvanceRequest) error {
	seconds := req.Seconds + req.Minutes*60 + req.Hours*3600
	turn, err := c.backend.AdvanceCampaign(ctx, ch.CampaignID, seconds, req.Resting, !req.NextTurn)
	if err != nil {
		return err
	}
	date := turn.Campaign.CurrentGameDate.Time
	if err := c.store.Channels().SetGameDate(ctx, ch.ID, date); err != nil {
		return err
	}
	ch.GameDate = &date

	var lines []string
	if req.Reason != "" {
		lines = append(lines, fmt.Sprintf("> %s\n", req.Reason))
	}
	if seconds != 0 {
		lines = append(lines, fmt.Sprintf("⌛ **%02d:%02d:%02d** elapsed!", req.Hours, req.Minutes, req.Seconds))
	}
	lines = append(lines, fmt.Sprintf("📅 It is now **%s** at **%s**.",
		date.Format("Monday 02 January 2006"), date.Format("15:04:05")))
	if turn.Character != nil {
		lines = append(lines, c.turnLine(ctx, turn.Character))
	}
	for _, dmg := range turn.Damages {
		lines = append(lines, fmt.Sprintf("> %s  **%s** took **%s**", turn.Icon, dmg.Character.Name, turn.LongLabel))
	}
	embed := chat.Embed{Title: "⏰ Time passes...", Description: strings.Join(lines, "\n")}
	return c.platform.SendEmbed(ctx, ch.ID, embed)
}

// turnLine names the next character to act, as a user mention when a local
// record owns that character, else by character name and id.
func (c *Clock) turnLine(ctx context.Context, character *backend.Character) string {
	if u, err := c.store.Users().GetByCharacterID(ctx, character.ID); err == nil && u != nil {
		return fmt.Sprintf("🔁 It is now **<@%s>**'s turn.", u.ID)
	}
	return fmt.Sprintf("🔁 It is now **%s**'s turn (%d).", character.Name, character.ID)
}
