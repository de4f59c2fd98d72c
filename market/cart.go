package market

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/skins-market-client/gateway"
)

const backendTimeLayout = "2006-01-02T15:04:05"

// EmptyCart is what a user without an active cart sees.
func EmptyCart(userID int64, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Status:    CartStatusActive,
		CreatedAt: now.Format(backendTimeLayout),
		Items:     []CartItem{},
	}
}

// Cart returns the user's active cart. No cart yet is an empty cart, not a failure.
func (c *Client) Cart(ctx context.Context, userID int64) (*Cart, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out Cart
	err := c.gw.Get(ctx, pathf("/cart/%d", userID), &out, gateway.WithExpectedStatus(http.StatusNotFound))
	if isNotFound(err) {
		return EmptyCart(userID, c.nowTime()), nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart reserves a sale listing in the user's cart.
func (c *Client) AddToCart(ctx context.Context, userID, saleListingID int64) (*Cart, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	if err := validateID("saleListingId", saleListingID); err != nil {
		return nil, err
	}
	var out Cart
	if err := c.gw.Post(ctx, "/cart/item", AddToCartRequest{UserID: userID, SaleListingID: saleListingID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCartItem drops an item. A cart that no longer exists is returned empty.
func (c *Client) RemoveCartItem(ctx context.Context, userID, cartItemID int64) (*Cart, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	if err := validateID("cartItemId", cartItemID); err != nil {
		return nil, err
	}
	var out Cart
	err := c.gw.Delete(ctx, pathf("/cart/%d/items/%d", userID, cartItemID), &out, gateway.WithExpectedStatus(http.StatusNotFound))
	if isNotFound(err) {
		return EmptyCart(userID, c.nowTime()), nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckoutItem buys one cart item. The backend answers with plain text.
func (c *Client) CheckoutItem(ctx context.Context, userID, cartItemID int64) (string, error) {
	if err := validateID("userId", userID); err != nil {
		return "", err
	}
	if err := validateID("cartItemId", cartItemID); err != nil {
		return "", err
	}
	var out string
	if err := c.gw.Post(ctx, "/cart/checkout-item", CheckoutItemRequest{UserID: userID, CartItemID: cartItemID}, &out); err != nil {
		return "", err
	}
	return out, nil
}
