package reconcile

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
	"github.com/debnet/fallout-bot/internal/store"
	"github.com/debnet/fallout-bot/internal/store/sqlite"
)

// fakeBackend implements UserBackend and ChannelBackend in memory.
type fakeBackend struct {
	mu sync.Mutex

	nextPlayerID      int64
	createPlayerCalls int
	failCreatePlayer  bool

	patchPlayerCalls []string
	failPatchPlayer  bool

	patchCharacterCalls []map[string]any
	failPatchCharacter  bool

	characters        map[int64]*backend.Character
	getCharacterCalls int

	nextCampaignID      int64
	campaigns           map[int64]*backend.Campaign
	createCampaignCalls int
	patchCampaignCalls  []map[string]any
	failPatchCampaign   bool
	advanceCalls        []map[string]any
	advanceResult       *backend.TurnResult
	failAdvanceFor      map[int64]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextPlayerID:   100,
		nextCampaignID: 500,
		characters:     map[int64]*backend.Character{},
		campaigns:      map[int64]*backend.Campaign{},
		failAdvanceFor: map[int64]bool{},
	}
}

func (f *fakeBackend) CreatePlayer(_ context.Context, req backend.CreatePlayerRequest) (*backend.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createPlayerCalls++
	if f.failCreatePlayer {
		return nil, backend.ErrUnavailable
	}
	f.nextPlayerID++
	return &backend.Player{ID: f.nextPlayerID, Nickname: req.Nickname}, nil
}

func (f *fakeBackend) PatchPlayer(_ context.Context, id int64, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchPlayerCalls = append(f.patchPlayerCalls, fmt.Sprintf("%d=%s", id, nickname))
	if f.failPatchPlayer {
		return backend.ErrUnavailable
	}
	return nil
}

func (f *fakeBackend) PatchCharacter(_ context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := map[string]any{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	f.patchCharacterCalls = append(f.patchCharacterCalls, rec)
	if f.failPatchCharacter {
		return backend.ErrUnavailable
	}
	return nil
}

func (f *fakeBackend) GetCharacter(_ context.Context, id int64) (*backend.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCharacterCalls++
	ch, ok := f.characters[id]
	if !ok {
		return nil, backend.ErrUnavailable
	}
	return ch, nil
}

func (f *fakeBackend) CreateCampaign(_ context.Context, req backend.CreateCampaignRequest) (*backend.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCampaignCalls++
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
	if f.failPatchCampaign {
		return backend.ErrUnavailable
	}
	return nil
}

func (f *fakeBackend) AdvanceCampaign(_ context.Context, id int64, seconds int, resting, reset bool) (*backend.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls = append(f.advanceCalls, map[string]any{
		"id": id, "seconds": seconds, "resting": resting, "reset": reset,
	})
	if f.failAdvanceFor[id] {
		return nil, backend.ErrUnavailable
	}
	if f.advanceResult != nil {
		return f.advanceResult, nil
	}
	camp := f.campaigns[id]
	if camp == nil {
		camp = &backend.Campaign{ID: id}
	}
	return &backend.TurnResult{Campaign: *camp}, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := sqlite.NewWithDB(db)
	require.NoError(t, err)
	return s
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func testStartDate() time.Time {
	return time.Date(2287, 10, 1, 8, 0, 0, 0, time.UTC)
}
