package commands

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/chat/chattest"
	"github.com/debnet/fallout-bot/internal/config"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store"
	"github.com/debnet/fallout-bot/internal/store/sqlite"
	"github.com/debnet/fallout-bot/internal/workflow"
)

// fakeBackend implements the full backend surface the command set and the
// layers below it touch, with canned results per operation.
type fakeBackend struct {
	mu sync.Mutex

	nextPlayerID   int64
	nextCampaignID int64
	campaigns      map[int64]*backend.Campaign
	characters     map[int64]*backend.Character

	createdCharacters []backend.CreateCharacterRequest
	nextCharacterID   int64

	rollResult   *backend.RollResult
	rollCalls    []backend.RollRequest
	damageResult *backend.DamageResult
	damageCalls  []backend.DamageRequest
	fightResult  *backend.RollResult
	fightCalls   []backend.FightRequest
	xpResult     *backend.XPResult
	xpCalls      []int

	items         []backend.Item
	lootTemplates []backend.Item
	lootItems     []backend.LootItem
	inventoryItem *backend.InventoryItem
	addItemCalls  []map[string]any
	copies        []backend.CharacterCopy
	tokens        []backend.Token

	patchCampaignCalls  []map[string]any
	patchCharacterCalls []map[string]any
	advanceResults      map[int64]*backend.TurnResult
	advanceCalls        []map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextPlayerID:    100,
		nextCampaignID:  500,
		nextCharacterID: 900,
		campaigns:       map[int64]*backend.Campaign{},
		characters:      map[int64]*backend.Character{},
		advanceResults:  map[int64]*backend.TurnResult{},
		tokens:          []backend.Token{{Key: "tok123"}},
	}
}

func (f *fakeBackend) CreatePlayer(_ context.Context, req backend.CreatePlayerRequest) (*backend.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPlayerID++
	return &backend.Player{ID: f.nextPlayerID, Nickname: req.Nickname}, nil
}

func (f *fakeBackend) PatchPlayer(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeBackend) PatchCharacter(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := map[string]any{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	f.patchCharacterCalls = append(f.patchCharacterCalls, rec)
	return nil
}

func (f *fakeBackend) GetCharacter(_ context.Context, id int64) (*backend.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.characters[id]
	if !ok {
		return nil, backend.ErrUnavailable
	}
	return ch, nil
}

func (f *fakeBackend) CreateCampaign(_ context.Context, req backend.CreateCampaignRequest) (*backend.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCampaignID++
	camp := &backend.Campaign{
		ID:              f.nextCampaignID,
		Name:            req.Name,
		GameMaster:      req.GameMaster,
		StartGameDate:   req.StartGameDate,
		CurrentGameDate: req.CurrentGameDate,
	}
	f.campaigns[camp.ID] = camp
	return camp, nil
}

func (f *fakeBackend) GetCampaign(_ context.Context, id int64) (*backend.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	camp, ok := f.campaigns[id]
	if !ok {
		return nil, backend.ErrUnavailable
	}
	return camp, nil
}

func (f *fakeBackend) PatchCampaign(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := map[string]any{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	f.patchCampaignCalls = append(f.patchCampaignCalls, rec)
	return nil
}

func (f *fakeBackend) AdvanceCampaign(_ context.Context, id int64, seconds int, resting, reset bool) (*backend.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls = append(f.advanceCalls, map[string]any{
		"id": id, "seconds": seconds, "resting": resting, "reset": reset,
	})
	if res, ok := f.advanceResults[id]; ok {
		return res, nil
	}
	camp := f.campaigns[id]
	if camp == nil {
		camp = &backend.Campaign{ID: id}
	}
	return &backend.TurnResult{Campaign: *camp}, nil
}

func (f *fakeBackend) CreateCharacter(_ context.Context, req backend.CreateCharacterRequest) (*backend.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCharacters = append(f.createdCharacters, req)
	f.nextCharacterID++
	ch := &backend.Character{ID: f.nextCharacterID, Name: req.Name}
	f.characters[ch.ID] = ch
	return ch, nil
}

func (f *fakeBackend) Roll(_ context.Context, _ int64, req backend.RollRequest) (*backend.RollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rollCalls = append(f.rollCalls, req)
	if f.rollResult == nil {
		return nil, backend.ErrUnavailable
	}
	return f.rollResult, nil
}

func (f *fakeBackend) Damage(_ context.Context, _ int64, req backend.DamageRequest) (*backend.DamageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.damageCalls = append(f.damageCalls, req)
	if f.damageResult == nil {
		return nil, backend.ErrUnavailable
	}
	return f.damageResult, nil
}

func (f *fakeBackend) Fight(_ context.Context, _ int64, req backend.FightRequest) (*backend.RollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fightCalls = append(f.fightCalls, req)
	if f.fightResult == nil {
		return nil, backend.ErrUnavailable
	}
	return f.fightResult, nil
}

func (f *fakeBackend) CopyCharacter(_ context.Context, _, _ int64, _ string, _ int) ([]backend.CharacterCopy, error) {
	return f.copies, nil
}

func (f *fakeBackend) AddExperience(_ context.Context, _ int64, amount int) (*backend.XPResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.xpCalls = append(f.xpCalls, amount)
	if f.xpResult == nil {
		return nil, backend.ErrUnavailable
	}
	return f.xpResult, nil
}

func (f *fakeBackend) AddItem(_ context.Context, characterID, itemID int64, quantity, condition int) (*backend.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addItemCalls = append(f.addItemCalls, map[string]any{
		"character": characterID, "item": itemID, "quantity": quantity, "condition": condition,
	})
	if f.inventoryItem == nil {
		return nil, backend.ErrUnavailable
	}
	return f.inventoryItem, nil
}

func (f *fakeBackend) FindItems(_ context.Context, _ string, _ bool) ([]backend.Item, error) {
	return f.items, nil
}

func (f *fakeBackend) FindLootTemplates(_ context.Context, _ string, _ bool) ([]backend.Item, error) {
	return f.lootTemplates, nil
}

func (f *fakeBackend) OpenLoot(_ context.Context, _, _, _ int64) ([]backend.LootItem, error) {
	return f.lootItems, nil
}

func (f *fakeBackend) PlayerTokens(_ context.Context, _ int64) ([]backend.Token, error) {
	if len(f.tokens) == 0 {
		return nil, backend.ErrUnavailable
	}
	return f.tokens, nil
}

type fixture struct {
	cfg        *config.Config
	store      store.Store
	backend    *fakeBackend
	platform   *chattest.Fake
	users      *reconcile.Users
	channels   *reconcile.Channels
	commands   *Commands
	dispatcher *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	cfg := config.NewForTesting()
	fb := newFakeBackend()
	p := chattest.New()
	log := zerolog.Nop()
	users := reconcile.NewUsers(s, fb, p, log)
	channels := reconcile.NewChannels(s, fb, p, cfg.StartDate(), log)
	mover := workflow.NewMover(users, channels, s, fb, p, cfg.WorldCategory, cfg.AdminRole, log)
	clock := workflow.NewClock(s, fb, p, log)
	cmds := New(cfg, fb, users, channels, mover, clock, s, p, log)
	d := NewDispatcher(cfg.CommandPrefix, cfg.AdminRole, p, users, log)
	cmds.RegisterAll(d)
	return &fixture{
		cfg:        cfg,
		store:      s,
		backend:    fb,
		platform:   p,
		users:      users,
		channels:   channels,
		commands:   cmds,
		dispatcher: d,
	}
}

// member registers a guild member and reconciles them.
func (f *fixture) member(t *testing.T, id, name string, admin bool) *model.User {
	t.Helper()
	ctx := context.Background()
	cu := chat.User{ID: id, GuildID: "g1", Username: name}
	f.platform.AddUser(cu)
	if admin {
		require.NoError(t, f.platform.AssignRole(ctx, "g1", id, "GM"))
	}
	usr, err := f.users.Reconcile(ctx, cu)
	require.NoError(t, err)
	return usr
}

// player is a member bound to a backend character.
func (f *fixture) player(t *testing.T, id, name string, characterID int64) *model.User {
	t.Helper()
	usr := f.member(t, id, name, false)
	require.NoError(t, f.store.Users().SetCharacterID(context.Background(), id, characterID))
	usr.CharacterID = characterID
	return usr
}

// invocation builds a handler invocation in the given channel.
func (f *fixture) invocation(t *testing.T, actor *model.User, channel chat.Channel, command string, args ...string) *Invocation {
	t.Helper()
	if _, ok := f.platform.ChannelsByID[channel.ID]; !ok {
		f.platform.AddChannel(channel)
	}
	return &Invocation{
		Ctx:     context.Background(),
		Message: chat.Message{ID: "m1", ChannelID: channel.ID, GuildID: "g1", Author: actor.Chat},
		Channel: channel,
		Actor:   actor,
		Command: command,
		Args:    args,
	}
}

func worldChannel(id, name string) chat.Channel {
	return chat.Channel{ID: id, GuildID: "g1", Name: name, CategoryName: "World"}
}
