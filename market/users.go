package market

import "context"

func (c *Client) UserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out UserProfile
	if err := c.gw.Get(ctx, pathf("/users/%d", userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Inventory(ctx context.Context, userID int64) ([]InventoryItem, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out []InventoryItem
	if err := c.gw.Get(ctx, pathf("/users/%d/inventory", userID), &out); err != nil {
		return nil, err
	}
	return out, nil
}
