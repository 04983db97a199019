package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/chat/chattest"
)

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	platform := chattest.New()
	r := NewUsers(newTestStore(t), fb, platform, testLogger())

	cu := chat.User{ID: "100", Username: "dogmeat"}
	first, err := r.Reconcile(ctx, cu)
	require.NoError(t, err)
	second, err := r.Reconcile(ctx, cu)
	require.NoError(t, err)

	assert.Equal(t, 1, fb.createPlayerCalls)
	assert.Equal(t, first.PlayerID, second.PlayerID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name)
}

func TestReconcileProvisioningFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	fb.failCreatePlayer = true
	r := NewUsers(newTestStore(t), fb, chattest.New(), testLogger())

	_, err := r.Reconcile(ctx, chat.User{ID: "100", Username: "dogmeat"})
	assert.ErrorIs(t, err, backend.ErrUnavailable)

	// Once provisioning succeeds the player id sticks and is never
	// cleared by later reconciliations.
	fb.failCreatePlayer = false
	usr, err := r.Reconcile(ctx, chat.User{ID: "100", Username: "dogmeat"})
	require.NoError(t, err)
	require.NotZero(t, usr.PlayerID)
	again, err := r.Reconcile(ctx, chat.User{ID: "100", Username: "dogmeat"})
	require.NoError(t, err)
	assert.Equal(t, usr.PlayerID, again.PlayerID)
}

func TestReconcileRenamePropagationIsBestEffort(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	platform := chattest.New()
	st := newTestStore(t)
	r := NewUsers(st, fb, platform, testLogger())

	usr, err := r.Reconcile(ctx, chat.User{ID: "100", Username: "dogmeat"})
	require.NoError(t, err)
	require.NoError(t, st.Users().SetCharacterID(ctx, usr.ID, 7))
	require.NoError(t, st.Users().SetPrivateChannel(ctx, usr.ID, "900"))
	usr.CharacterID = 7
	usr.PrivateChannelID = "900"
	platform.AddChannel(chat.Channel{ID: "900", Name: "dogmeat"})

	// Player patch fails; the character patch and channel rename must
	// still happen.
	fb.failPatchPlayer = true
	renamed, err := r.Reconcile(ctx, chat.User{ID: "100", Username: "dogmeat", Nickname: "Rex"})
	require.NoError(t, err)

	assert.Equal(t, "Rex", renamed.Name)
	stored, err := st.Users().Get(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "Rex", stored.Name)
	require.Len(t, fb.patchCharacterCalls, 1)
	assert.Equal(t, "Rex", fb.patchCharacterCalls[0]["name"])
	assert.Equal(t, "Rex", platform.Renamed["900"])
}

func TestResolveNumericReturnsCachedCreature(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	fb.characters[42] = &backend.Character{ID: 42, Name: "Radroach", CampaignID: 3}
	r := NewUsers(newTestStore(t), fb, chattest.New(), testLogger())

	s1, err := r.Resolve(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, s1.Creature)
	assert.Nil(t, s1.User)
	assert.Equal(t, "Radroach", s1.Creature.Name)

	s2, err := r.Resolve(ctx, "42")
	require.NoError(t, err)
	assert.Same(t, s1.Creature, s2.Creature)
	assert.Equal(t, 1, fb.getCharacterCalls)
}

func TestResolveMentionAndFreeText(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	platform := chattest.New()
	platform.AddUser(chat.User{ID: "100", Username: "dogmeat", Nickname: "Rex"})
	r := NewUsers(newTestStore(t), fb, platform, testLogger())

	byMention, err := r.Resolve(ctx, "<@100>")
	require.NoError(t, err)
	require.NotNil(t, byMention.User)
	assert.Equal(t, "100", byMention.User.ID)

	byName, err := r.Resolve(ctx, "rex")
	require.NoError(t, err)
	require.NotNil(t, byName.User)
	assert.Equal(t, "100", byName.User.ID)

	_, err = r.Resolve(ctx, "nobody")
	assert.Error(t, err)
}
