package commands

import (
	"fmt"

	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/config"
	"github.com/debnet/fallout-bot/internal/workflow"
)

// Move relocates one or more players into another channel.
func (c *Commands) Move(inv *Invocation) error {
	p := NewParser(inv.Command, "Move one or more players into another channel.")
	p.Positional("channel", "destination channel name")
	p.Variadic("player", "player name")
	topic := p.Flags().StringP("topic", "t", "", "channel topic")
	date := p.Flags().StringP("date", "d", "", "in-world date override")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	req := workflow.MoveRequest{
		Destination: p.Arg(0),
		Players:     p.Rest(1),
		Topic:       *topic,
		Source:      inv.Channel,
		Actor:       inv.Actor,
	}
	if *date != "" {
		t, err := config.ParseDate(*date)
		if err != nil {
			p.Fail("unrecognized date %q", *date)
			return c.usage(inv, p)
		}
		req.Date = &t
	}
	_, err := c.mover.Move(inv.Ctx, req)
	return err
}

// Time advances in-world time and optionally hands over the turn.
func (c *Commands) Time(inv *Invocation) error {
	p := NewParser(inv.Command, "Advance time and optionally move on to the next character's turn.")
	seconds := p.Flags().IntP("seconds", "S", 0, "elapsed seconds")
	minutes := p.Flags().IntP("minutes", "M", 0, "elapsed minutes")
	hours := p.Flags().IntP("hours", "H", 0, "elapsed hours")
	resting := p.Flags().BoolP("sleep", "s", false, "resting time")
	turn := p.Flags().BoolP("turn", "t", false, "next turn")
	all := p.Flags().BoolP("all", "a", false, "every campaign")
	reason := p.Flags().StringP("reason", "r", "", "reason")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	req := workflow.AdvanceRequest{
		Seconds:  *seconds,
		Minutes:  *minutes,
		Hours:    *hours,
		Resting:  *resting,
		NextTurn: *turn,
		All:      *all,
		Reason:   *reason,
	}
	if !*all {
		ch, err := c.channels.Reconcile(inv.Ctx, inv.Channel, inv.Actor, nil)
		if err != nil {
			return err
		}
		req.Channel = ch
	}
	return c.clock.Advance(inv.Ctx, req)
}

// Say posts a rich dialog embed in the current channel.
func (c *Commands) Say(inv *Invocation) error {
	p := NewParser(inv.Command, "Open a rich dialog window.")
	p.Positional("text", "dialog text")
	title := p.Flags().StringP("title", "t", "", "dialog title")
	portrait := p.Flags().StringP("portrait", "p", "", "thumbnail URL")
	image := p.Flags().StringP("image", "i", "", "image URL")
	color := p.Flags().StringP("color", "c", "", "dialog color")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	e := chat.Embed{
		Title:       *title,
		Description: p.Arg(0),
		Color:       parseColor(*color),
		Thumbnail:   *portrait,
		Image:       *image,
	}
	return c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e)
}

// Purge wipes the invoking channel's history and hands the transcript to
// every occupant owning a private channel.
func (c *Commands) Purge(inv *Invocation) error {
	occupants, err := c.store.Users().ListByChannel(inv.Ctx, inv.Channel.ID)
	if err != nil {
		return err
	}
	deleted, err := c.platform.Purge(inv.Ctx, inv.Channel.ID)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return nil
	}
	transcript, err := c.platform.ExportTranscript(inv.Ctx, inv.Channel, deleted)
	if err != nil || transcript == "" {
		return err
	}
	notice := fmt.Sprintf("♻️ The channel <#%s> has been purged!\n⌚ You can find the message history below:", inv.Channel.ID)
	for _, occ := range occupants {
		if occ.PrivateChannelID == "" {
			continue
		}
		if err := c.platform.SendFile(inv.Ctx, occ.PrivateChannelID, notice, inv.Channel.Name+".html", []byte(transcript)); err != nil {
			c.log.Warn().Err(err).Str("user", occ.ID).Msg("transcript delivery failed")
		}
	}
	return nil
}
