package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/config"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store"
	"github.com/debnet/fallout-bot/internal/workflow"
)

// Backend is the backend surface the command handlers call directly.
// backend.Client satisfies it.
type Backend interface {
	CreateCharacter(ctx context.Context, req backend.CreateCharacterRequest) (*backend.Character, error)
	Roll(ctx context.Context, characterID int64, req backend.RollRequest) (*backend.RollResult, error)
	Damage(ctx context.Context, characterID int64, req backend.DamageRequest) (*backend.DamageResult, error)
	Fight(ctx context.Context, attackerID int64, req backend.FightRequest) (*backend.RollResult, error)
	CopyCharacter(ctx context.Context, id, campaignID int64, name string, count int) ([]backend.CharacterCopy, error)
	AddExperience(ctx context.Context, characterID int64, amount int) (*backend.XPResult, error)
	AddItem(ctx context.Context, characterID, itemID int64, quantity, condition int) (*backend.InventoryItem, error)
	FindItems(ctx context.Context, query string, numeric bool) ([]backend.Item, error)
	FindLootTemplates(ctx context.Context, query string, numeric bool) ([]backend.Item, error)
	OpenLoot(ctx context.Context, templateID, campaignID, characterID int64) ([]backend.LootItem, error)
	PlayerTokens(ctx context.Context, playerID int64) ([]backend.Token, error)
}

// Commands hosts every command handler and their shared collaborators.
type Commands struct {
	cfg      *config.Config
	backend  Backend
	users    *reconcile.Users
	channels *reconcile.Channels
	mover    *workflow.Mover
	clock    *workflow.Clock
	store    store.Store
	platform chat.Platform
	log      zerolog.Logger
}

// New wires the command set.
func New(cfg *config.Config, b Backend, users *reconcile.Users, channels *reconcile.Channels,
	mover *workflow.Mover, clock *workflow.Clock, s store.Store, p chat.Platform, log zerolog.Logger) *Commands {
	return &Commands{
		cfg:      cfg,
		backend:  b,
		users:    users,
		channels: channels,
		mover:    mover,
		clock:    clock,
		store:    s,
		platform: p,
		log:      log.With().Str("component", "commands").Logger(),
	}
}

// RegisterAll binds every command to the dispatcher. Only new and link are
// open to all members.
func (c *Commands) RegisterAll(d *Dispatcher) {
	d.Register("new", false, c.New)
	d.Register("link", false, c.Link)
	d.Register("move", true, c.Move)
	d.Register("roll", true, c.Roll)
	d.Register("damage", true, c.Damage)
	d.Register("fight", true, c.Fight)
	d.Register("copy", true, c.Copy)
	d.Register("time", true, c.Time)
	d.Register("give", true, c.Give)
	d.Register("open", true, c.Open)
	d.Register("say", true, c.Say)
	d.Register("xp", true, c.XP)
	d.Register("purge", true, c.Purge)
}

// isAdmin reports whether the invoker holds the administrative role.
func (c *Commands) isAdmin(inv *Invocation) bool {
	return c.platform.HasRole(inv.Ctx, inv.Message.GuildID, inv.Actor.ID, c.cfg.AdminRole)
}

// whisper sends a private reply to the invoker.
func (c *Commands) whisper(inv *Invocation, format string, args ...any) error {
	return c.platform.SendDirect(inv.Ctx, inv.Actor.ID, fmt.Sprintf(format, args...))
}

// usage delivers a parser usage message privately and ends the command.
func (c *Commands) usage(inv *Invocation, p *Parser) error {
	return c.whisper(inv, "```%s```", p.Message())
}

// statusMarker is the outcome emoji for roll-like results.
func statusMarker(success, critical bool) string {
	switch {
	case success && critical:
		return "🏆"
	case success:
		return "🆗"
	case critical:
		return "💀"
	default:
		return "⚠️"
	}
}

// statusColor is the embed color for roll-like results.
func statusColor(success, critical bool) int {
	switch {
	case success && critical:
		return colorBlue
	case success:
		return colorGreen
	case critical:
		return colorRed
	default:
		return colorOrange
	}
}

const (
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
	colorOrange = 0xE67E22
	colorBlue   = 0x3498DB
)

var namedColors = map[string]int{
	"green":  colorGreen,
	"red":    colorRed,
	"orange": colorOrange,
	"blue":   colorBlue,
	"gold":   0xF1C40F,
	"purple": 0x9B59B6,
	"teal":   0x1ABC9C,
}

// parseColor accepts a known color name or a 6-digit hex code; anything
// else maps to the platform default.
func parseColor(code string) int {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return 0
	}
	if c, ok := namedColors[code]; ok {
		return c
	}
	if len(code) == 6 {
		var c int
		if _, err := fmt.Sscanf(code, "%x", &c); err == nil {
			return c
		}
	}
	return 0
}

// embed builds a basic rich message.
func embed(title, description string, color int) chat.Embed {
	return chat.Embed{Title: title, Description: description, Color: color}
}

// sheetURL builds the web character-sheet link for a user.
func (c *Commands) sheetURL(ctx context.Context, usr *model.User) (string, error) {
	if usr.PlayerID == 0 {
		return "", nil
	}
	tokens, err := c.backend.PlayerTokens(ctx, usr.PlayerID)
	if err != nil || len(tokens) == 0 {
		return "", err
	}
	base := strings.TrimRight(c.cfg.BackendURL, "/")
	url := base + "/token/" + tokens[0].Key
	if usr.CharacterID != 0 {
		url += fmt.Sprintf("/?character=%d", usr.CharacterID)
	}
	return url, nil
}

// resolvePlayer resolves a player reference to a subject with a backend
// character, or nil when it cannot act.
func (c *Commands) resolvePlayer(ctx context.Context, ref string) *reconcile.Subject {
	subj, err := c.users.Resolve(ctx, ref)
	if err != nil || subj.CharacterID() == 0 {
		return nil
	}
	return subj
}
