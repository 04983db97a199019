package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/debnet/fallout-bot/internal/backend"
	"github.com/debnet/fallout-bot/internal/chat"
	"github.com/debnet/fallout-bot/internal/model"
	"github.com/debnet/fallout-bot/internal/store"
)

// ChannelBackend is the backend surface the channel reconciler needs.
type ChannelBackend interface {
	CreateCampaign(ctx context.Context, req backend.CreateCampaignRequest) (*backend.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*backend.Campaign, error)
	PatchCampaign(ctx context.Context, id int64, fields map[string]any) error
}

var titleCaser = cases.Title(language.English)

// CampaignName derives a human-readable campaign name from a channel name:
// separators become spaces, words are title-cased.
func CampaignName(channelName string) string {
	name := strings.NewReplacer("#", "", "-", " ", "_", " ").Replace(channelName)
	return titleCaser.String(name)
}

// Channels reconciles chat channels against the local store and the
// backend. The backend is authoritative for campaign time; the local
// store is authoritative for nothing but the chat-to-campaign binding.
type Channels struct {
	store     store.Store
	backend   ChannelBackend
	platform  chat.Platform
	log       zerolog.Logger
	startDate time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*model.Channel
}

// NewChannels creates the channel reconciler. startDate seeds the in-world
// clock of campaigns created without an explicit override.
func NewChannels(s store.Store, b ChannelBackend, p chat.Platform, startDate time.Time, log zerolog.Logger) *Channels {
	return &Channels{
		store:     s,
		backend:   b,
		platform:  p,
		log:       log.With().Str("component", "reconcile.channels").Logger(),
		startDate: startDate,
		locks:     map[string]*sync.Mutex{},
		cache:     map[string]*model.Channel{},
	}
}

func (r *Channels) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Resolve turns a channel reference (mention token or case-insensitive
// name) into a reconciled record.
func (r *Channels) Resolve(ctx context.Context, ref string, actor *model.User, override *time.Time) (*model.Channel, error) {
	ref = strings.TrimSpace(ref)
	var cc chat.Channel
	if id, ok := chat.ExtractID(ref); ok {
		c, err := r.platform.ChannelByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", id, model.ErrNotFound)
		}
		cc = c
	} else {
		c, ok := r.platform.FindChannel(ctx, ref)
		if !ok {
			return nil, fmt.Errorf("channel %q: %w", ref, model.ErrNotFound)
		}
		cc = c
	}
	return r.Reconcile(ctx, cc, actor, override)
}

// Reconcile maps a live chat channel to its local record: fetch-or-create,
// lazy campaign provisioning (actor becomes game master when known), date
// sync from the backend, and name/topic propagation to the backend's
// labels. Campaign provisioning failure is fatal; label patching is
// best-effort.
func (r *Channels) Reconcile(ctx context.Context, cc chat.Channel, actor *model.User, override *time.Time) (*model.Channel, error) {
	lock := r.lockFor(cc.ID)
	lock.Lock()
	defer lock.Unlock()

	date := r.startDate
	if override != nil {
		date = *override
	}

	r.mu.Lock()
	ch, ok := r.cache[cc.ID]
	r.mu.Unlock()
	if !ok {
		var err error
		ch, err = r.store.Channels().GetOrCreate(ctx, cc.ID, cc.Name, date)
		if err != nil {
			return nil, err
		}
	}

	campaignName := CampaignName(cc.Name)
	if ch.CampaignID == 0 {
		req := backend.CreateCampaignRequest{
			Name:            campaignName,
			Description:     cc.Topic,
			StartGameDate:   backend.GameDate{Time: r.startDate},
			CurrentGameDate: backend.GameDate{Time: date},
		}
		if actor != nil {
			req.GameMaster = actor.PlayerID
		}
		camp, err := r.backend.CreateCampaign(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("provision campaign for #%s: %w", cc.Name, err)
		}
		if err := r.store.Channels().SetCampaignID(ctx, ch.ID, camp.ID); err != nil {
			return nil, err
		}
		ch.CampaignID = camp.ID
	} else {
		camp, err := r.backend.GetCampaign(ctx, ch.CampaignID)
		if err != nil {
			return nil, err
		}
		// Backend time wins over whatever the local store remembers.
		current := camp.CurrentGameDate.Time
		if err := r.store.Channels().SetGameDate(ctx, ch.ID, current); err != nil {
			return nil, err
		}
		ch.GameDate = &current
	}

	if ch.Name != cc.Name || ch.Topic != cc.Topic {
		if err := r.store.Channels().SetNameTopic(ctx, ch.ID, cc.Name, cc.Topic); err != nil {
			return nil, err
		}
		ch.Name, ch.Topic = cc.Name, cc.Topic
		fields := map[string]any{"name": campaignName, "description": cc.Topic}
		if err := r.backend.PatchCampaign(ctx, ch.CampaignID, fields); err != nil {
			r.log.Warn().Err(err).Str("channel", ch.ID).Msg("campaign label patch failed")
		}
	}

	ch.Chat = cc
	r.mu.Lock()
	r.cache[ch.ID] = ch
	r.mu.Unlock()
	return ch, nil
}

// Tracked reports whether a channel already has a local record, without
// creating one.
func (r *Channels) Tracked(ctx context.Context, id string) bool {
	r.mu.Lock()
	_, ok := r.cache[id]
	r.mu.Unlock()
	if ok {
		return true
	}
	_, err := r.store.Channels().Get(ctx, id)
	return err == nil
}

// Forget drops the cached record after a channel deletion.
func (r *Channels) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

// StartDate returns the configured campaign start date.
func (r *Channels) StartDate() time.Time { return r.startDate }
