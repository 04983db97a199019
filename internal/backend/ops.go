package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreatePlayer provisions a backend player account.
func (c *Client) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*Player, error) {
	var p Player
	if err := c.call(ctx, http.MethodPost, "player/", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PatchPlayer updates a player's nickname.
func (c *Client) PatchPlayer(ctx context.Context, id int64, nickname string) error {
	payload := map[string]any{"nickname": nickname}
	return c.call(ctx, http.MethodPatch, fmt.Sprintf("player/%d/", id), payload, nil)
}

// CreateCampaign creates a campaign.
func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	var camp Campaign
	if err := c.call(ctx, http.MethodPost, "campaign/", req, &camp); err != nil {
		return nil, err
	}
	return &camp, nil
}

// GetCampaign fetches a campaign; the backend is authoritative for its
// current in-world date.
func (c *Client) GetCampaign(ctx context.Context, id int64) (*Campaign, error) {
	var camp Campaign
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("campaign/%d/", id), nil, &camp); err != nil {
		return nil, err
	}
	return &camp, nil
}

// PatchCampaign updates selected campaign fields.
func (c *Client) PatchCampaign(ctx context.Context, id int64, fields map[string]any) error {
	return c.call(ctx, http.MethodPatch, fmt.Sprintf("campaign/%d/", id), fields, nil)
}

// DeleteCampaign removes a campaign.
func (c *Client) DeleteCampaign(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("campaign/%d/", id), nil, nil)
}

// AdvanceCampaign moves the campaign clock forward by seconds. reset
// restarts turn order from the first character; when false only the next
// turn is taken.
func (c *Client) AdvanceCampaign(ctx context.Context, id int64, seconds int, resting, reset bool) (*TurnResult, error) {
	payload := map[string]any{"seconds": seconds, "resting": resting, "reset": reset}
	var res TurnResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("campaign/%d/next/", id), payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetCharacter fetches a character.
func (c *Client) GetCharacter(ctx context.Context, id int64) (*Character, error) {
	var ch Character
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("character/%d/", id), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// CreateCharacter creates a character.
func (c *Client) CreateCharacter(ctx context.Context, req CreateCharacterRequest) (*Character, error) {
	var ch Character
	if err := c.call(ctx, http.MethodPost, "character/", req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// PatchCharacter updates selected character fields.
func (c *Client) PatchCharacter(ctx context.Context, id int64, fields map[string]any) error {
	return c.call(ctx, http.MethodPatch, fmt.Sprintf("character/%d/", id), fields, nil)
}

// CopyCharacter clones a character count times into a campaign.
func (c *Client) CopyCharacter(ctx context.Context, id, campaignID int64, name string, count int) ([]CharacterCopy, error) {
	payload := map[string]any{"campaign": campaignID, "name": name, "count": count}
	var copies []CharacterCopy
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/copy/", id), payload, &copies); err != nil {
		return nil, err
	}
	return copies, nil
}

// Roll performs a stat or skill check.
func (c *Client) Roll(ctx context.Context, characterID int64, req RollRequest) (*RollResult, error) {
	var res RollResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/roll/", characterID), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Damage applies damage or healing.
func (c *Client) Damage(ctx context.Context, characterID int64, req DamageRequest) (*DamageResult, error) {
	var res DamageResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/damage/", characterID), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Fight resolves an attack from a character against a target.
func (c *Client) Fight(ctx context.Context, attackerID int64, req FightRequest) (*RollResult, error) {
	var res RollResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/fight/", attackerID), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AddExperience grants experience points.
func (c *Client) AddExperience(ctx context.Context, characterID int64, amount int) (*XPResult, error) {
	payload := map[string]any{"amount": amount}
	var res XPResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/xp/", characterID), payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AddItem adds an item to a character inventory.
func (c *Client) AddItem(ctx context.Context, characterID, itemID int64, quantity, condition int) (*InventoryItem, error) {
	payload := map[string]any{"item": itemID, "quantity": quantity, "condition": condition}
	var res InventoryItem
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("character/%d/item/", characterID), payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FindItems looks up catalog items by numeric id or name fragment.
func (c *Client) FindItems(ctx context.Context, query string, numeric bool) ([]Item, error) {
	return c.findNamed(ctx, "item/", query, numeric)
}

// FindLootTemplates looks up loot templates by numeric id or name fragment.
func (c *Client) FindLootTemplates(ctx context.Context, query string, numeric bool) ([]Item, error) {
	return c.findNamed(ctx, "loottemplate/", query, numeric)
}

func (c *Client) findNamed(ctx context.Context, collection, query string, numeric bool) ([]Item, error) {
	q := url.Values{}
	if numeric {
		q.Set("id", query)
	} else {
		q.Set("filters", fmt.Sprintf(`or(name_fr.icontains:%q,name_en.icontains:%q)`, query, query))
	}
	q.Set("fields", "id,name")
	q.Set("all", "1")
	var items []Item
	if err := c.call(ctx, http.MethodGet, collection+"?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// OpenLoot opens a loot template in a campaign, optionally through a
// character's luck.
func (c *Client) OpenLoot(ctx context.Context, templateID, campaignID, characterID int64) ([]LootItem, error) {
	payload := map[string]any{"campaign": campaignID}
	if characterID != 0 {
		payload["character"] = characterID
	}
	var loot []LootItem
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("loottemplate/%d/open/", templateID), payload, &loot); err != nil {
		return nil, err
	}
	return loot, nil
}

// PlayerTokens lists web access tokens for a player.
func (c *Client) PlayerTokens(ctx context.Context, playerID int64) ([]Token, error) {
	var tokens []Token
	endpoint := fmt.Sprintf("common/token/?all=1&user_id=%d", playerID)
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
