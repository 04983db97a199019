package model

import (
	"time"

	"github.com/debnet/fallout-bot/internal/chat"
)

// User is the persisted record binding a chat identity to a backend player
// and character. PlayerID and CharacterID stay zero until the backend side
// has been provisioned; once set, PlayerID is never cleared.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Level            int        `json:"level"`
	PlayerID         int64      `json:"playerId,omitempty"`
	CharacterID      int64      `json:"characterId,omitempty"`
	PrivateChannelID string     `json:"privateChannelId,omitempty"`
	ChannelID        string     `json:"channelId,omitempty"`
	CreationTime     time.Time  `json:"creationTime"`

	// Chat is the live chat-platform user attached by the reconciler.
	// Never persisted.
	Chat chat.User `json:"-"`
}

// Channel is the persisted record binding a chat channel to a backend
// campaign. CampaignID stays zero until a campaign exists; once set it is
// never cleared. GameDate mirrors the campaign's in-world clock, for which
// the backend is authoritative.
type Channel struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Topic        string     `json:"topic,omitempty"`
	CampaignID   int64      `json:"campaignId,omitempty"`
	GameDate     *time.Time `json:"gameDate,omitempty"`
	CreationTime time.Time  `json:"creationTime"`

	// Chat is the live chat-platform channel attached by the reconciler.
	// Never persisted.
	Chat chat.Channel `json:"-"`
}

// Creature is a backend-only actor with no chat identity (typically an
// NPC). Built on demand from backend character data and cached in memory
// for the process lifetime only.
type Creature struct {
	Name        string `json:"name"`
	CharacterID int64  `json:"characterId"`
	CampaignID  int64  `json:"campaignId"`
}
