package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/chat/chattest"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/reconcile"
	"github.com/debnet/fallout-bot/internal/store"
	"github.com/debnet/fallout-bot/internal/store/sqlite"
)

// fakeGameBackend implements every backend surface the workflows and the
// reconcilers under them need.
type fakeGameBackend struct {
	mu sync.Mutex

	nextPlayerID int64
	characters   map[int64]*backend.Character

	nextCampaignID int64
	campaigns      map[int64]*backend.Campaign

	patchCampaignCalls  []map[string]any
	patchCharacterCalls []map[string]any

	advanceCalls   []map[string]any
	advanceResults map[int64]*backend.TurnResult
	failAdvanceFor map[int64]bool
}

func newFakeGameBackend() *fakeGameBackend {
	return &fakeGameBackend{
		nextPlayerID:   100,
		nextCampaignID: 500,
		characters:     map[int64]*backend.Character{},
		campaigns:      map[int64]*backend.Campaign{},
		advanceResults: map[int64]*backend.TurnResult{},
		failAdvanceFor: map[int64]bool{},
	}
}

func (f *fakeGameBackend) CreatePlayer(_ context.Context, req backend.CreatePlayerRequest) (*backend.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPlayerID++
	return &backend.Player{ID: f.nextPlayerID, Nickname: req.Nickname}, nil
}

func (f *fakeGameBackend) PatchPlayer(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeGameBackend) PatchCharacter(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := map[string]any{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	f.patchCharacterCalls = append(f.patchCharacterCalls, rec)
	return nil
}

func (f *fakeGameBackend) GetCharacter(_ context.Context, id int64) (*backend.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.characters[id]
	if !ok {
		return nil, backend.ErrUnavailable
	}
	return ch, nil
}

func (f *fakeGameBackend) CreateCampaign(_ context.Context, req backend.CreateCampaignRequest) (*backend.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCampaignID++
	camp := &backend.Campaign{
		ID:              f.nextCampaignID,
		Name:            req.Name,
		Description:     req.Description,
		GameMaster:      req.GameMaster,
		StartGameDate:   req.StartGameDate,
		CurrentGameDate: req.CurrentGameDate,
	}
	f.campaigns[camp.ID] = camp
	return camp, nil
}

func (f *fakeGameBackend) GetCampaign(_ context.Context, id int64) (*backend.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	camp, ok := f.campaigns[id]
	if !ok {
		return nil, backend.ErrUnavailable
	}
	return camp, nil
}

func (f *fakeGameBackend) PatchCampaign(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := map[string]any{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	f.patchCampaignCalls = append(f.patchCampaignCalls, rec)
	return nil
}

func (f *fakeGameBackend) AdvanceCampaign(_ context.Context, id int64, seconds int, resting, reset bool) (*backend.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls = append(f.advanceCalls, map[string]any{
		"id": id, "seconds": seconds, "resting": resting, "reset": reset,
	})
	if f.failAdvanceFor[id] {
		return nil, backend.ErrUnavailable
	}
	if res, ok := f.advanceResults[id]; ok {
		return res, nil
	}
	camp := f.campaigns[id]
	if camp == nil {
		camp = &backend.Campaign{ID: id}
	}
	return &backend.TurnResult{Campaign: *camp}, nil
}

// clockPatches returns the campaign patches that touched start_game_date.
func (f *fakeGameBackend) clockPatches() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, rec := range f.patchCampaignCalls {
		if _, ok := rec["start_game_date"]; ok {
			out = append(out, rec)
		}
	}
	return out
}

type fixture struct {
	store    store.Store
	backend  *fakeGameBackend
	platform *chattest.Fake
	users    *reconcile.Users
	channels *reconcile.Channels
	mover    *Mover
	clock    *Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	fb := newFakeGameBackend()
	p := chattest.New()
	log := zerolog.Nop()
	users := reconcile.NewUsers(s, fb, p, log)
	channels := reconcile.NewChannels(s, fb, p, testStartDate(), log)
	return &fixture{
		store:    s,
		backend:  fb,
		platform: p,
		users:    users,
		channels: channels,
		mover:    NewMover(users, channels, s, fb, p, "World", "GM", log),
		clock:    NewClock(s, fb, p, log),
	}
}

func testStartDate() time.Time {
	return time.Date(2287, 10, 1, 8, 0, 0, 0, time.UTC)
}

// addPlayer registers a member, provisions their backend player and binds
// them to a character and optionally a current channel.
func (f *fixture) addPlayer(t *testing.T, id, name string, characterID int64, channelID string) *model.User {
	t.Helper()
	ctx := context.Background()
	f.platform.AddUser(chat.User{ID: id, GuildID: "g1", Username: name})
	usr, err := f.users.Reconcile(ctx, chat.User{ID: id, GuildID: "g1", Username: name})
	require.NoError(t, err)
	if characterID != 0 {
		require.NoError(t, f.store.Users().SetCharacterID(ctx, id, characterID))
		usr.CharacterID = characterID
	}
	if channelID != "" {
		require.NoError(t, f.store.Users().SetChannel(ctx, id, channelID))
		usr.ChannelID = channelID
	}
	return usr
}
