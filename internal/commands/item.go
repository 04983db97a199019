package commands

import (
	"fmt"
	"strings"

	"github.com/debnet/fallout-bot/internal/chat"
)

// Give adds an item to a player's inventory, looked up by id or name
// fragment. Zero or ambiguous matches abort.
func (c *Commands) Give(inv *Invocation) error {
	p := NewParser(inv.Command, "Give one or more items to a given character.")
	p.Positional("item", "item name or id")
	p.Positional("player", "player name")
	quantity := p.Flags().IntP("quantity", "q", 1, "number of items")
	condition := p.Flags().IntP("condition", "c", 100, "item condition")
	image := p.Flags().StringP("image", "i", "", "item image")
	silent := p.Flags().BoolP("silent", "s", false, "no notification")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	subj := c.resolvePlayer(inv.Ctx, p.Arg(1))
	if subj == nil {
		return nil
	}
	query := p.Arg(0)
	items, err := c.backend.FindItems(inv.Ctx, query, isNumeric(query))
	if err != nil || len(items) != 1 {
		return c.whisper(inv, "⚠️ No or too many (**%d**) items match the search.", len(items))
	}

	res, err := c.backend.AddItem(inv.Ctx, subj.CharacterID(), items[0].ID, *quantity, *condition)
	if err != nil {
		return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
	}
	if *silent {
		return nil
	}

	e := embed("🎁 New item found!",
		fmt.Sprintf("%s picked up **%s** (x%d)!", subj.Mention(), items[0].Name, *quantity), 0)
	switch {
	case *image != "":
		e.Image = *image
	case res.Item.Image != "":
		e.Image = res.Item.Image
	case res.Item.Thumbnail != "":
		e.Image = strings.TrimRight(c.cfg.BackendURL, "/") + "/static/fallout/img/" + res.Item.Thumbnail
	}
	return c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e)
}

// Open opens a loot template against the channel's campaign, optionally
// through a given character's luck.
func (c *Commands) Open(inv *Invocation) error {
	p := NewParser(inv.Command, "Open a loot, optionally with a given character.")
	p.Positional("loot", "loot name or id")
	player := p.Flags().StringP("player", "p", "", "player")
	silent := p.Flags().BoolP("silent", "s", false, "no notification")
	if !p.Parse(inv.Args) {
		return c.usage(inv, p)
	}

	ch, err := c.channels.Reconcile(inv.Ctx, inv.Channel, inv.Actor, nil)
	if err != nil {
		return err
	}
	if ch.CampaignID == 0 {
		return nil
	}
	var characterID int64
	var opener string
	if *player != "" {
		if subj := c.resolvePlayer(inv.Ctx, *player); subj != nil {
			characterID = subj.CharacterID()
			opener = subj.Mention()
		}
	}

	query := p.Arg(0)
	templates, err := c.backend.FindLootTemplates(inv.Ctx, query, isNumeric(query))
	if err != nil || len(templates) != 1 {
		return c.whisper(inv, "⚠️ No or too many (**%d**) loots match the search.", len(templates))
	}
	loot, err := c.backend.OpenLoot(inv.Ctx, templates[0].ID, ch.CampaignID, characterID)
	if err != nil {
		return c.whisper(inv, "⚠️ An error occurred while running `%s`.", inv.Command)
	}
	if *silent {
		return nil
	}

	var b strings.Builder
	if opener != "" {
		fmt.Fprintf(&b, "**%s** was opened by %s!", templates[0].Name, opener)
	} else {
		fmt.Fprintf(&b, "**%s** was opened!", templates[0].Name)
	}
	var lines []string
	for _, li := range loot {
		if li.Condition != 0 {
			lines = append(lines, fmt.Sprintf("> %s (x%d, condition %d%%)", li.Item.Name, li.Quantity, int(li.Condition*100)))
		} else {
			lines = append(lines, fmt.Sprintf("> %s (x%d)", li.Item.Name, li.Quantity))
		}
	}
	e := chat.Embed{Title: "📦 Loot found!"}
	if len(lines) > 0 {
		fmt.Fprintf(&b, "\nIt contains the following items:\n%s", strings.Join(lines, "\n"))
		e.Color = colorGreen
		e.Footer = "You can choose what to pick up from the campaign's loot screen."
	} else {
		b.WriteString("\nUnfortunately it holds nothing of value...")
		e.Color = colorOrange
	}
	e.Description = b.String()
	return c.platform.SendEmbed(inv.Ctx, inv.Channel.ID, e)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
