// Package reconcile keeps the local records mapping chat identities and
// channels to backend players, characters and campaigns. Reconcilers own
// all creation and mutation of those records; workflows go through them.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/store"
)

// UserBackend is the backend surface the identity reconciler needs.
type UserBackend interface {
	CreatePlayer(ctx context.Context, req backend.CreatePlayerRequest) (*backend.Player, error)
	PatchPlayer(ctx context.Context, id int64, nickname string) error
	PatchCharacter(ctx context.Context, id int64, fields map[string]any) error
	GetCharacter(ctx context.Context, id int64) (*backend.Character, error)
}

// Subject is a resolved actor reference: exactly one of User or Creature
// is set. Creatures are backend-only actors with no chat identity.
type Subject struct {
	User     *model.User
	Creature *model.Creature
}

// CharacterID returns the backend character id of either variant.
func (s *Subject) CharacterID() int64 {
	if s.User != nil {
		return s.User.CharacterID
	}
	if s.Creature != nil {
		return s.Creature.CharacterID
	}
	return 0
}

// DisplayName returns the subject's human-readable name.
func (s *Subject) DisplayName() string {
	if s.User != nil {
		return s.User.Name
	}
	if s.Creature != nil {
		return s.Creature.Name
	}
	return ""
}

// Mention returns a chat mention for users, or name and character id for
// creatures.
func (s *Subject) Mention() string {
	if s.User != nil {
		return "<@" + s.User.ID + ">"
	}
	if s.Creature != nil {
		return fmt.Sprintf("**%s** (*%d*)", s.Creature.Name, s.Creature.CharacterID)
	}
	return ""
}

// Users reconciles chat identities against the local store and the
// backend. A per-identity lock guards the fetch-or-create-and-provision
// sequence so at most one backend player is created per identity.
type Users struct {
	store    store.Store
	backend  UserBackend
	platform chat.Platform
	log      zerolog.Logger

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	cache     map[string]*model.User
	creatures map[string]*model.Creature
}

// NewUsers creates the identity reconciler.
func NewUsers(s store.Store, b UserBackend, p chat.Platform, log zerolog.Logger) *Users {
	return &Users{
		store:     s,
		backend:   b,
		platform:  p,
		log:       log.With().Str("component", "reconcile.users").Logger(),
		locks:     map[string]*sync.Mutex{},
		cache:     map[string]*model.User{},
		creatures: map[string]*model.Creature{},
	}
}

func (r *Users) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Resolve turns a free-text reference into a Subject. Checks run in strict
// order: numeric backend character id, structured mention token, then a
// case-insensitive match against known member names. Numeric references
// never resolve to a local user.
func (r *Users) Resolve(ctx context.Context, ref string) (*Subject, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, model.ErrNotFound
	}
	if isDigits(ref) {
		cr, err := r.creature(ctx, ref)
		if err != nil {
			return nil, err
		}
		return &Subject{Creature: cr}, nil
	}

	var cu chat.User
	if id, ok := chat.ExtractID(ref); ok {
		u, err := r.platform.UserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
		}
		cu = u
	} else {
		u, ok := r.platform.FindUser(ctx, ref)
		if !ok {
			return nil, fmt.Errorf("user %q: %w", ref, model.ErrNotFound)
		}
		cu = u
	}

	usr, err := r.Reconcile(ctx, cu)
	if err != nil {
		return nil, err
	}
	return &Subject{User: usr}, nil
}

// creature returns the cached creature for a backend character id, or
// fetches the character and builds one. Cached for the process lifetime.
func (r *Users) creature(ctx context.Context, ref string) (*model.Creature, error) {
	r.mu.Lock()
	cr, ok := r.creatures[ref]
	r.mu.Unlock()
	if ok {
		return cr, nil
	}

	ch, err := r.backend.GetCharacter(ctx, mustInt64(ref))
	if err != nil {
		return nil, err
	}
	cr = &model.Creature{Name: ch.Name, CharacterID: ch.ID, CampaignID: ch.CampaignID}
	r.mu.Lock()
	r.creatures[ref] = cr
	r.mu.Unlock()
	return cr, nil
}

// RememberCreature caches a creature under its character id, for actors
// produced by backend actions rather than lookups.
func (r *Users) RememberCreature(cr *model.Creature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creatures[fmt.Sprintf("%d", cr.CharacterID)] = cr
}

// Reconcile maps a concrete chat user to its local record, creating and
// provisioning lazily. Provisioning failure is fatal to the caller's
// command; rename propagation is best-effort per target. Calling twice
// without external change is side-effect-free after the first call.
func (r *Users) Reconcile(ctx context.Context, cu chat.User) (*model.User, error) {
	lock := r.lockFor(cu.ID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	usr, ok := r.cache[cu.ID]
	r.mu.Unlock()
	if !ok {
		var err error
		usr, err = r.store.Users().GetOrCreate(ctx, cu.ID, cu.Name())
		if err != nil {
			return nil, err
		}
	}

	if usr.PlayerID == 0 {
		p, err := r.backend.CreatePlayer(ctx, backend.CreatePlayerRequest{
			Username: usr.ID,
			Nickname: usr.Name,
			Password: strings.ReplaceAll(uuid.NewString(), "-", ""),
		})
		if err != nil {
			return nil, fmt.Errorf("provision backend player for %s: %w", usr.ID, err)
		}
		if err := r.store.Users().SetPlayerID(ctx, usr.ID, p.ID); err != nil {
			return nil, err
		}
		usr.PlayerID = p.ID
	}

	if name := cu.Name(); name != usr.Name {
		if err := r.store.Users().SetName(ctx, usr.ID, name); err != nil {
			return nil, err
		}
		usr.Name = name
		// Each propagation is independent: one failing must not block
		// the others.
		if err := r.backend.PatchPlayer(ctx, usr.PlayerID, name); err != nil {
			r.log.Warn().Err(err).Str("user", usr.ID).Msg("rename: player patch failed")
		}
		if usr.CharacterID != 0 {
			if err := r.backend.PatchCharacter(ctx, usr.CharacterID, map[string]any{"name": name}); err != nil {
				r.log.Warn().Err(err).Str("user", usr.ID).Msg("rename: character patch failed")
			}
		}
		if usr.PrivateChannelID != "" {
			if err := r.platform.RenameChannel(ctx, usr.PrivateChannelID, name); err != nil {
				r.log.Warn().Err(err).Str("user", usr.ID).Msg("rename: private channel rename failed")
			}
		}
	}

	usr.Chat = cu
	r.mu.Lock()
	r.cache[usr.ID] = usr
	r.mu.Unlock()
	return usr, nil
}

// Cached returns the cached record without touching the store or backend.
func (r *Users) Cached(id string) (*model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	usr, ok := r.cache[id]
	return usr, ok
}

// Forget drops the cached record, e.g. when the underlying chat entity
// goes away.
func (r *Users) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func mustInt64(s string) int64 {
	var n int64
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	return n
}
