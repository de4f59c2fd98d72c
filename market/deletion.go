package market

import "context"

type createDeletionRequest struct {
	UserID int64 `json:"userId"`
}

type rejectDeletionRequest struct {
	Reason string `json:"reason"`
}

// RequestDeletion asks for the user's account to be deleted. An admin decides.
func (c *Client) RequestDeletion(ctx context.Context, userID int64) (*DeletionRequest, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out DeletionRequest
	if err := c.gw.Post(ctx, "/deletion-requests", createDeletionRequest{UserID: userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletionRequests(ctx context.Context, userID int64) ([]DeletionRequest, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out []DeletionRequest
	if err := c.gw.Get(ctx, withQuery("/deletion-requests", map[string]string{"userId": idParam(userID)}), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelDeletionRequest(ctx context.Context, requestID int64) (*DeletionRequest, error) {
	if err := validateID("requestId", requestID); err != nil {
		return nil, err
	}
	var out DeletionRequest
	if err := c.gw.Patch(ctx, pathf("/deletion-requests/%d/cancel", requestID), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
