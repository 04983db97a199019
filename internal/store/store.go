// Package store exposes persistence operations required by the
// reconcilers. Implementations live under store/<driver>/.
package store

import (
	"context"
	"time"

	"github.com/debnet/fallout-bot/internal/model"
)

// Store groups the two local tables. The reconcilers exclusively own
// record creation and mutation; workflows only touch specific fields
// through these contracts.
type Store interface {
	Users() Users
	Channels() Channels
	HealthCheck(ctx context.Context) error
}

// Users persists chat-identity records.
type Users interface {
	// GetOrCreate fetches the record or inserts one with the given name.
	GetOrCreate(ctx context.Context, id, name string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	GetByCharacterID(ctx context.Context, characterID int64) (*model.User, error)
	SetName(ctx context.Context, id, name string) error
	SetPlayerID(ctx context.Context, id string, playerID int64) error
	SetCharacterID(ctx context.Context, id string, characterID int64) error
	SetPrivateChannel(ctx context.Context, id, channelID string) error
	SetChannel(ctx context.Context, id, channelID string) error
	ListByChannel(ctx context.Context, channelID string) ([]*model.User, error)
	CountByChannel(ctx context.Context, channelID string) (int, error)
	// ClearChannel drops the current-channel reference of every user
	// pointing at channelID.
	ClearChannel(ctx context.Context, channelID string) error
}

// Channels persists chat-channel records.
type Channels interface {
	// GetOrCreate fetches the record or inserts one with the given name
	// and initial in-world date.
	GetOrCreate(ctx context.Context, id, name string, date time.Time) (*model.Channel, error)
	Get(ctx context.Context, id string) (*model.Channel, error)
	SetCampaignID(ctx context.Context, id string, campaignID int64) error
	SetGameDate(ctx context.Context, id string, date time.Time) error
	SetNameTopic(ctx context.Context, id, name, topic string) error
	// ListWithCampaign returns every channel bound to a backend campaign.
	ListWithCampaign(ctx context.Context) ([]*model.Channel, error)
	Delete(ctx context.Context, id string) error
}
