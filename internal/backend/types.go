package backend

import (
	"fmt"
	"strings"
	"time"
)

// GameDate is an in-world date/time as serialized by the backend. The
// backend omits timezone information, so several layouts are accepted.
type GameDate struct {
	time.Time
}

var gameDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseGameDate parses a backend-formatted in-world date.
func ParseGameDate(s string) (time.Time, error) {
	for _, layout := range gameDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized game date: %q", s)
}

func (d *GameDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseGameDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d GameDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02T15:04:05") + `"`), nil
}

// Player is a backend account owning characters.
type Player struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// Campaign is a backend game session carrying the in-world clock.
type Campaign struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	GameMaster      int64    `json:"game_master"`
	StartGameDate   GameDate `json:"start_game_date"`
	CurrentGameDate GameDate `json:"current_game_date"`
}

// Character is a backend actor, playable or not.
type Character struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Health     int    `json:"health"`
	CampaignID int64  `json:"campaign_id"`
}

// CharacterCopy is one clone returned by the character copy action, whose
// campaign field is serialized under a different key than Character's.
type CharacterCopy struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Campaign int64  `json:"campaign"`
}

// CreatePlayerRequest provisions a backend player for a chat identity.
type CreatePlayerRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// CreateCampaignRequest creates a campaign bound to a chat channel.
type CreateCampaignRequest struct {
	Name            string   `json:"name"`
	GameMaster      int64    `json:"game_master,omitempty"`
	Description     string   `json:"description"`
	StartGameDate   GameDate `json:"start_game_date"`
	CurrentGameDate GameDate `json:"current_game_date"`
}

// CreateCharacterRequest creates a playable character.
type CreateCharacterRequest struct {
	Name          string   `json:"name"`
	Player        int64    `json:"player,omitempty"`
	Campaign      int64    `json:"campaign,omitempty"`
	IsPlayer      bool     `json:"is_player"`
	HasStats      bool     `json:"has_stats"`
	HasNeeds      bool     `json:"has_needs"`
	EnableLevelup bool     `json:"enable_levelup"`
	EnableStats   bool     `json:"enable_stats"`
	EnableLogs    bool     `json:"enable_logs"`
	Strength      int      `json:"strength"`
	Perception    int      `json:"perception"`
	Endurance     int      `json:"endurance"`
	Charisma      int      `json:"charisma"`
	Intelligence  int      `json:"intelligence"`
	Agility       int      `json:"agility"`
	Luck          int      `json:"luck"`
	TagSkills     []string `json:"tag_skills"`
}

// RollRequest is a stat or skill check.
type RollRequest struct {
	Stats    string `json:"stats"`
	Modifier int    `json:"modifier"`
	XP       bool   `json:"xp"`
}

// RollResult is shared by roll and fight actions.
type RollResult struct {
	Success      bool      `json:"success"`
	Critical     bool      `json:"critical"`
	StatsDisplay string    `json:"stats_display"`
	LongLabel    string    `json:"long_label"`
	Experience   int       `json:"experience"`
	LevelUp      bool      `json:"level_up"`
	Character    Character `json:"character"`
}

// DamageRequest applies damage or healing to a character.
type DamageRequest struct {
	MinDamage          int    `json:"min_damage"`
	MaxDamage          int    `json:"max_damage"`
	RawDamage          int    `json:"raw_damage"`
	DamageType         string `json:"damage_type"`
	BodyPart           string `json:"body_part,omitempty"`
	ThresholdModifier  int    `json:"threshold_modifier"`
	ResistanceModifier int    `json:"resistance_modifier"`
	Simulation         bool   `json:"simulation"`
}

// DamageResult reports one resolved damage application.
type DamageResult struct {
	Label     string    `json:"label"`
	LongLabel string    `json:"long_label"`
	Icon      string    `json:"icon"`
	IsHeal    bool      `json:"is_heal"`
	Character Character `json:"character"`
}

// FightRequest resolves an attack between two characters.
type FightRequest struct {
	Target            int64  `json:"target"`
	TargetRange       int    `json:"target_range"`
	TargetBodyPart    string `json:"target_body_part"`
	HitChanceModifier int    `json:"hit_chance_modifier"`
	IsAction          bool   `json:"is_action"`
	WeaponType        string `json:"weapon_type"`
	ForceSuccess      bool   `json:"force_success"`
	ForceCritical     bool   `json:"force_critical"`
	ForceRawDamage    bool   `json:"force_raw_damage"`
	Simulation        bool   `json:"simulation"`
}

// TurnResult is the outcome of advancing a campaign clock: the updated
// campaign, the new active character (when turn order is running), and any
// damage the elapsed time inflicted.
type TurnResult struct {
	Campaign  Campaign     `json:"campaign"`
	Character *Character   `json:"character"`
	Damages   []TurnDamage `json:"damages"`
	Icon      string       `json:"icon"`
	LongLabel string       `json:"long_label"`
}

// TurnDamage is one survival-meter effect applied while time passed.
type TurnDamage struct {
	Character Character `json:"character"`
}

// XPResult reports an experience grant.
type XPResult struct {
	RequiredExperience int  `json:"required_experience"`
	Level              int  `json:"level"`
	LevelUp            bool `json:"level_up"`
}

// Item is a catalog item or loot template reference.
type Item struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
}

// InventoryItem is one item slot granted to a character.
type InventoryItem struct {
	Item Item `json:"item"`
}

// LootItem is one item produced by opening a loot template.
type LootItem struct {
	ID        int64   `json:"id"`
	Item      Item    `json:"item"`
	Quantity  int     `json:"quantity"`
	Condition float64 `json:"condition"`
}

// Token is an access token granting web access to a player's sheet.
type Token struct {
	Key string `json:"key"`
}
