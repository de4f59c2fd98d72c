package market

import (
	"context"
	"strings"

	"github.com/jrsteele09/skins-market-client/session"
)

// The admin endpoints answer 403 to non-admin credentials; the client does not pre-check
// the role so the backend stays the authority.

func (c *Client) AdminUsers(ctx context.Context) ([]AdminUser, error) {
	var out []AdminUser
	if err := c.gw.Get(ctx, "/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetUserRole(ctx context.Context, userID int64, role session.Role) (*AdminUser, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	role = session.Role(strings.ToUpper(string(role)))
	if err := validateRole(role); err != nil {
		return nil, err
	}

	var out AdminUser
	path := withQuery(pathf("/admin/users/%d/role", userID), map[string]string{"role": string(role)})
	if err := c.gw.Patch(ctx, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDeletionRequests(ctx context.Context) ([]DeletionRequest, error) {
	var out []DeletionRequest
	if err := c.gw.Get(ctx, "/admin/deletion-requests", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApproveDeletionRequest(ctx context.Context, requestID int64) (*DeletionRequest, error) {
	if err := validateID("requestId", requestID); err != nil {
		return nil, err
	}
	var out DeletionRequest
	if err := c.gw.Patch(ctx, pathf("/admin/deletion-requests/%d/approve", requestID), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectDeletionRequest(ctx context.Context, requestID int64, reason string) (*DeletionRequest, error) {
	if err := validateID("requestId", requestID); err != nil {
		return nil, err
	}
	if err := validateRequired("reason", reason); err != nil {
		return nil, err
	}
	var out DeletionRequest
	body := rejectDeletionRequest{Reason: strings.TrimSpace(reason)}
	if err := c.gw.Patch(ctx, pathf("/admin/deletion-requests/%d/reject", requestID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetInstantPrice creates or replaces the price the market pays for a skin.
func (c *Client) SetInstantPrice(ctx context.Context, skinID, price int64) (*InstantBuyPrice, error) {
	if err := validateID("skinId", skinID); err != nil {
		return nil, err
	}
	if err := validateAmount("price", price); err != nil {
		return nil, err
	}
	var out InstantBuyPrice
	if err := c.gw.Post(ctx, "/admin/instant-prices", InstantPriceRequest{SkinID: skinID, Price: price}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CleanupReservations releases expired cart reservations and reports how many were freed.
func (c *Client) CleanupReservations(ctx context.Context) (int, error) {
	var out CleanupResult
	if err := c.gw.Post(ctx, "/admin/cleanup-reservations", struct{}{}, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}
