package market

import (
	"context"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

// Skins lists the catalogue.
func (c *Client) Skins(ctx context.Context, filter SkinFilter) ([]Skin, error) {
	path := withQuery("/market/skins", map[string]string{
		"q":          filter.Query,
		"collection": filter.Collection,
		"rarity":     filter.Rarity,
		"condition":  filter.Condition,
	})
	var out []Skin
	if err := c.gw.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaleListings lists active listings, only ownerID's when ownerID > 0.
func (c *Client) SaleListings(ctx context.Context, ownerID int64) ([]SaleListing, error) {
	path := withQuery("/market/sale-listings", map[string]string{"ownerId": idParam(ownerID)})
	var out []SaleListing
	if err := c.gw.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSaleListing(ctx context.Context, req CreateSaleListingRequest) (*SaleListingCreated, error) {
	if err := validateID("sellerId", req.SellerID); err != nil {
		return nil, err
	}
	if err := validateID("inventoryItemId", req.InventoryItemID); err != nil {
		return nil, err
	}
	if err := validateAmount("price", req.Price); err != nil {
		return nil, err
	}

	var out SaleListingCreated
	if err := c.gw.Post(ctx, "/market/sale-listings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSaleListing(ctx context.Context, listingID, sellerID int64) error {
	if err := validateID("listingId", listingID); err != nil {
		return err
	}
	if err := validateID("sellerId", sellerID); err != nil {
		return err
	}
	path := withQuery(pathf("/market/sale-listings/%d/cancel", listingID), map[string]string{"sellerId": idParam(sellerID)})
	return c.gw.Post(ctx, path, struct{}{}, nil)
}

// InstantSell sells a listing to the market at the instant price.
func (c *Client) InstantSell(ctx context.Context, listingID, sellerID int64) error {
	if err := validateID("listingId", listingID); err != nil {
		return err
	}
	if err := validateID("sellerId", sellerID); err != nil {
		return err
	}
	path := withQuery(pathf("/market/sale-listings/%d/instant-sell", listingID), map[string]string{"sellerId": idParam(sellerID)})
	return c.gw.Post(ctx, path, struct{}{}, nil)
}

func (c *Client) InstantPrice(ctx context.Context, skinID int64) (int64, error) {
	if err := validateID("skinId", skinID); err != nil {
		return 0, err
	}
	var out InstantPrice
	if err := c.gw.Get(ctx, pathf("/market/skins/%d/instant-price", skinID), &out); err != nil {
		return 0, err
	}
	return out.Price, nil
}

// SellInstantly lists an inventory item at the skin's instant price and sells it at once.
func (c *Client) SellInstantly(ctx context.Context, sellerID int64, item InventoryItem) (*SaleListingCreated, error) {
	if !item.Tradable {
		return nil, apperrors.Invalidf("inventory item %d is not tradable", item.ID)
	}
	price, err := c.InstantPrice(ctx, item.SkinID)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, apperrors.Invalidf("instant price is not set for skin %d", item.SkinID)
	}

	created, err := c.CreateSaleListing(ctx, CreateSaleListingRequest{
		SellerID:        sellerID,
		InventoryItemID: item.ID,
		Price:           price,
	})
	if err != nil {
		return nil, err
	}
	if err := c.InstantSell(ctx, created.ID, sellerID); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) PriceHistory(ctx context.Context, skinID int64) ([]PricePoint, error) {
	if err := validateID("skinId", skinID); err != nil {
		return nil, err
	}
	var out []PricePoint
	if err := c.gw.Get(ctx, pathf("/skins/%d/price-history", skinID), &out); err != nil {
		return nil, err
	}
	return out, nil
}
