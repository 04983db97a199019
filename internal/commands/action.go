package commands

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/debnet/fallout-bot/internal/alias"
	"github.com/debnet/fallout-bot/internal/backend"
)

// Roll performs a stat or skill check for one or more players.
func (c *Commands) Roll(inv *Invocation) error {
	p := NewParser(inv.Command, "Perform a skill or S.P.E.C.I.A.L. check for one or more players.")
	p.Positional("stats", "statistic name or code")
	p.Variadic("player", "player name")
	modifier := p.Flags().IntP("modifier", "m", 0, "roll modifier")
	xp := p.Flags().BoolP("xp", "x", false, "grant experience")
	reason := p.Flags().StringP("reason", "r", "", "explanation")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	stats := alias.Stats.Resolve(p.Arg(0))
	for _, ref := range p.Rest(1) {
		subj := c.resolvePlayer(inv.Ctx, ref)
		if subj == nil {
			continue
		}
		res, err := c.backend.Roll(inv.Ctx, subj.CharacterID(), backend.RollRequest{
			Stats:    stats,
			Modifier: *modifier,
			XP:       *xp,
		})
		if err != nil {
			return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
		}

		var b strings.Builder
		if *reason != "" {
			fmt.Fprintf(&b, "> %s\n\n", *reason)
		}
		fmt.Fprintf(&b, "%s  %s : %s", statusMarker(res.Success, res.Critical), subj.Mention(), res.LongLabel)
		appendProgress(&b, res)
		e := embed(fmt.Sprintf("🎲 %s check", res.StatsDisplay), b.String(), statusColor(res.Success, res.Critical))
		if err := c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e); err != nil {
			return err
		}
	}
	return nil
}

// Damage applies damage (or healing) to one or more players.
func (c *Commands) Damage(inv *Invocation) error {
	p := NewParser(inv.Command, "Inflict damage on one or more players.")
	p.Positional("min", "minimal damage")
	p.Positional("max", "maximal damage")
	p.Positional("raw", "raw damage")
	p.Variadic("player", "player name")
	damageType := p.Flags().StringP("type", "t", "normal", "damage type")
	bodyPart := p.Flags().StringP("part", "p", "", "targeted body part")
	threshold := p.Flags().IntP("threshold", "m", 0, "damage threshold modifier")
	resistance := p.Flags().IntP("resistance", "R", 0, "damage resistance modifier")
	simulation := p.Flags().BoolP("simulation", "s", false, "simulate only")
	reason := p.Flags().StringP("reason", "r", "", "explanation")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}
	minDmg, ok := p.IntArg(0)
	if !ok {
		return c.usage(inv, p)
	}
	maxDmg, ok := p.IntArg(1)
	if !ok {
		return c.usage(inv, p)
	}
	rawDmg, ok := p.IntArg(2)
	if !ok {
		return c.usage(inv, p)
	}

	req := backend.DamageRequest{
		MinDamage:          minDmg,
		MaxDamage:          maxDmg,
		RawDamage:          rawDmg,
		DamageType:         alias.Damages.Resolve(*damageType),
		ThresholdModifier:  *threshold,
		ResistanceModifier: *resistance,
		Simulation:         *simulation,
	}
	if *bodyPart != "" {
		req.BodyPart = alias.BodyParts.Resolve(*bodyPart)
	}
	for _, ref := range p.Rest(3) {
		subj := c.resolvePlayer(inv.Ctx, ref)
		if subj == nil {
			continue
		}
		res, err := c.backend.Damage(inv.Ctx, subj.CharacterID(), req)
		if err != nil {
			return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
		}

		var b strings.Builder
		if *reason != "" {
			fmt.Fprintf(&b, "> %s\n\n", *reason)
		}
		fmt.Fprintf(&b, "%s took **%s**", subj.Mention(), res.LongLabel)
		if res.Character.Health <= 0 {
			b.WriteString(" and was **killed**!")
		} else {
			b.WriteString(".")
		}
		color := colorRed
		if res.IsHeal {
			color = colorGreen
		}
		e := embed(fmt.Sprintf("%s  %s", res.Icon, capitalize(res.Label)), b.String(), color)
		if err := c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e); err != nil {
			return err
		}
	}
	return nil
}

// Fight resolves an attack between two players.
func (c *Commands) Fight(inv *Invocation) error {
	p := NewParser(inv.Command, "Make two players fight each other.")
	p.Positional("attacker", "attacking player")
	p.Positional("defender", "defending player")
	rng := p.Flags().IntP("range", "r", 1, "distance between the players")
	bodyPart := p.Flags().StringP("part", "p", "torso", "targeted body part")
	modifier := p.Flags().IntP("modifier", "m", 0, "hit chance modifier")
	action := p.Flags().BoolP("action", "a", false, "counts as an action")
	weapon := p.Flags().StringP("weapon", "w", "primary", "weapon type")
	forceSuccess := p.Flags().BoolP("success", "f", false, "force success")
	forceCritical := p.Flags().BoolP("critical", "c", false, "force critical")
	forceRaw := p.Flags().BoolP("raw", "x", false, "force raw damage")
	simulation := p.Flags().BoolP("simulation", "s", false, "simulate only")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	attacker := c.resolvePlayer(inv.Ctx, p.Arg(0))
	target := c.resolvePlayer(inv.Ctx, p.Arg(1))
	if attacker == nil || target == nil {
		return c.whisper(inv, "⚠️ The selected players cannot fight because they have no character.")
	}
	res, err := c.backend.Fight(inv.Ctx, attacker.CharacterID(), backend.FightRequest{
		Target:            target.CharacterID(),
		TargetRange:       *rng,
		TargetBodyPart:    alias.BodyParts.Resolve(*bodyPart),
		HitChanceModifier: *modifier,
		IsAction:          *action,
		WeaponType:        *weapon,
		ForceSuccess:      *forceSuccess,
		ForceCritical:     *forceCritical,
		ForceRawDamage:    *forceRaw,
		Simulation:        *simulation,
	})
	if err != nil {
		return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s vs. %s : %s", statusMarker(res.Success, res.Critical),
		attacker.Mention(), target.Mention(), res.LongLabel)
	appendProgress(&b, res)
	b.WriteString(".")
	e := embed("⚔️ Attack!", b.String(), statusColor(res.Success, res.Critical))
	return c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e)
}

// appendProgress adds the level-up or experience line of a roll result.
func appendProgress(b *strings.Builder, res *backend.RollResult) {
	if res.LevelUp {
		fmt.Fprintf(b, "\n🆙 Reached level **%d**!", res.Character.Level)
	} else if res.Experience != 0 {
		fmt.Fprintf(b, "\n⬆️ **+%d** experience points gained.", res.Experience)
	}
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
