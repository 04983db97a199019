package commands

import (
	"fmt"
	"strings"

	"github.com/debnet/fallout-bot/internal/alias"
	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/workflow"
)

var specialOrder = []string{"strength", "perception", "endurance", "charisma", "intelligence", "agility", "luck"}

// New creates a character from seven S.P.E.C.I.A.L. values and optional
// tag skills, then provisions the player's private channel.
func (c *Commands) New(inv *Invocation) error {
	p := NewParser(inv.Command, "Create a new character with the chosen statistics.")
	for _, name := range specialOrder {
		p.Positional(name, fmt.Sprintf("%s (between 1 and 10)", name))
	}
	tags := p.Flags().StringSliceP("tag", "t", nil, "tag skills (3 at most)")
	target := p.Flags().StringP("user", "u", "", "target user")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	stats := make(map[string]int, len(specialOrder))
	sum := 0
	for i, name := range specialOrder {
		v, ok := p.IntArg(i)
		if !ok {
			return c.usage(inv, p)
		}
		if v < 1 || v > 10 {
			p.Fail("%s must be between 1 and 10", name)
			return c.usage(inv, p)
		}
		stats[name] = v
		sum += v
	}

	admin := c.isAdmin(inv)
	subject := inv.Actor
	if *target != "" && admin {
		subj, err := c.users.Resolve(inv.Ctx, *target)
		if err != nil || subj.User == nil {
			return c.whisper(inv, "⚠️ Unknown target user.")
		}
		subject = subj.User
	}
	if *target == "" && subject.CharacterID != 0 {
		return c.whisper(inv, "⛔ You have already created your character.")
	}
	if sum != 40 && !admin {
		return c.whisper(inv, "⛔ The sum of your statistics must be exactly **40**.")
	}
	if len(*tags) > 3 && !admin {
		return c.whisper(inv, "⛔ You can select 3 tag skills at most.")
	}
	var tagSkills []string
	for _, t := range *tags {
		if skill, ok := alias.Skills.Lookup(t); ok {
			tagSkills = append(tagSkills, skill)
		}
	}

	ch, err := c.backend.CreateCharacter(inv.Ctx, backend.CreateCharacterRequest{
		Name:          subject.Name,
		Player:        subject.PlayerID,
		Campaign:      c.cfg.DefaultCampaignID,
		IsPlayer:      true,
		HasStats:      true,
		HasNeeds:      true,
		EnableLevelup: true,
		EnableStats:   true,
		EnableLogs:    true,
		Strength:      stats["strength"],
		Perception:    stats["perception"],
		Endurance:     stats["endurance"],
		Charisma:      stats["charisma"],
		Intelligence:  stats["intelligence"],
		Agility:       stats["agility"],
		Luck:          stats["luck"],
		TagSkills:     tagSkills,
	})
	if err != nil {
		return err
	}
	if err := c.store.Users().SetCharacterID(inv.Ctx, subject.ID, ch.ID); err != nil {
		return err
	}
	subject.CharacterID = ch.ID

	url, err := c.sheetURL(inv.Ctx, subject)
	if err != nil {
		c.log.Warn().Err(err).Str("user", subject.ID).Msg("sheet url lookup failed")
	}
	if err := c.platform.SendDirect(inv.Ctx, subject.ID,
		fmt.Sprintf("✅ Your character has been created! Character sheet: %s", url)); err != nil {
		c.log.Warn().Err(err).Str("user", subject.ID).Msg("creation notice failed")
	}
	if err := c.platform.AssignRole(inv.Ctx, inv.Message.GuildID, subject.ID, c.cfg.PlayerRole); err != nil {
		c.log.Warn().Err(err).Str("user", subject.ID).Msg("player role assignment failed")
	}
	return c.ensurePrivateChannel(inv, subject)
}

// ensurePrivateChannel provisions the player's personal channel in the
// player category with access limited to the owner and administrators.
func (c *Commands) ensurePrivateChannel(inv *Invocation, usr *model.User) error {
	if usr.PrivateChannelID != "" {
		return nil
	}
	name := workflow.ChannelName(usr.Name)
	ch, ok := c.platform.FindChannel(inv.Ctx, name)
	if !ok {
		var err error
		ch, err = c.platform.CreateChannel(inv.Ctx, inv.Message.GuildID, name, c.cfg.PlayerCategory, usr.Name)
		if err != nil {
			return err
		}
		if err := c.platform.GrantRoleAccess(inv.Ctx, inv.Message.GuildID, ch.ID, c.cfg.AdminRole); err != nil {
			c.log.Warn().Err(err).Str("channel", ch.ID).Msg("admin access to private channel failed")
		}
		if err := c.platform.GrantAccess(inv.Ctx, ch.ID, usr.ID); err != nil {
			c.log.Warn().Err(err).Str("channel", ch.ID).Msg("owner access to private channel failed")
		}
	}
	if err := c.store.Users().SetPrivateChannel(inv.Ctx, usr.ID, ch.ID); err != nil {
		return err
	}
	usr.PrivateChannelID = ch.ID
	return nil
}

// Link sends the invoker their character-sheet address.
func (c *Commands) Link(inv *Invocation) error {
	if inv.Actor.PlayerID == 0 {
		return nil
	}
	url, err := c.sheetURL(inv.Ctx, inv.Actor)
	if err != nil {
		return err
	}
	if inv.Actor.CharacterID == 0 {
		if err := c.whisper(inv, "⚠️ You have no active character yet, type `%snew` to create one.", c.cfg.CommandPrefix); err != nil {
			return err
		}
	}
	return c.whisper(inv, "🔗 Access your character sheet: %s", url)
}

// Copy clones a backend character into the current channel's campaign and
// announces the newcomers.
func (c *Commands) Copy(inv *Invocation) error {
	p := NewParser(inv.Command, "Copy one or more characters into the current campaign.")
	p.Positional("character", "character id")
	name := p.Flags().StringP("name", "n", "", "new character name")
	count := p.Flags().IntP("count", "c", 1, "number of characters")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}
	charID, ok := p.IntArg(0)
	if !ok {
		return c.usage(inv, p)
	}

	ch, err := c.channels.Reconcile(inv.Ctx, inv.Channel, inv.Actor, nil)
	if err != nil {
		return err
	}
	if ch.CampaignID == 0 {
		return nil
	}
	copies, err := c.backend.CopyCharacter(inv.Ctx, int64(charID), ch.CampaignID, *name, *count)
	if err != nil {
		return err
	}

	labels := make([]string, 0, len(copies))
	for _, cp := range copies {
		cr := &model.Creature{Name: cp.Name, CharacterID: cp.ID, CampaignID: cp.Campaign}
		c.users.RememberCreature(cr)
		labels = append(labels, fmt.Sprintf("**%s** (*%d*)", cr.Name, cr.CharacterID))
	}
	verb := "appears"
	if len(copies) > 1 {
		verb = "appear"
	}
	return c.platform.Send(inv.Ctx, inv.Channel.ID,
		fmt.Sprintf("🚪 %s %s in <#%s>.", strings.Join(labels, ", "), verb, inv.Channel.ID))
}

// XP grants experience to one or more players.
func (c *Commands) XP(inv *Invocation) error {
	p := NewParser(inv.Command, "Add experience to one or more characters.")
	p.Positional("amount", "experience amount")
	p.Variadic("player", "player name")
	reason := p.Flags().StringP("reason", "r", "", "reason")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}
	amount, ok := p.IntArg(0)
	if !ok {
		return c.usage(inv, p)
	}

	for _, ref := range p.Rest(1) {
		subj := c.resolvePlayer(inv.Ctx, ref)
		if subj == nil {
			continue
		}
		res, err := c.backend.AddExperience(inv.Ctx, subj.CharacterID(), amount)
		if err != nil {
			return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
		}

		var b strings.Builder
		if *reason != "" {
			fmt.Fprintf(&b, "> %s\n", *reason)
		}
		title := "⬆️ Experience gained!"
		if res.LevelUp {
			title = "🆙 Level up!"
			fmt.Fprintf(&b, "%s gained **%d** experience points and reached level **%d**!\n", subj.Mention(), amount, res.Level)
			fmt.Fprintf(&b, "It now takes **%d** experience points to reach level **%d**.", res.RequiredExperience, res.Level+1)
		} else {
			fmt.Fprintf(&b, "%s gained **%d** experience points!\n", subj.Mention(), amount)
			fmt.Fprintf(&b, "Still **%d** experience points short of level **%d**.", res.RequiredExperience, res.Level+1)
		}
		if err := c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, embed(title, b.String(), 0)); err != nil {
			return err
		}
	}
	return nil
}
