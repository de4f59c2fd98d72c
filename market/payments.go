package market

import (
	"context"
	"strings"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if err := validateID("userId", req.UserID); err != nil {
		return nil, err
	}
	if err := validateAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.Type != PaymentDeposit && req.Type != PaymentWithdraw {
		return nil, apperrors.Invalidf("type must be %s or %s", PaymentDeposit, PaymentWithdraw)
	}
	if !req.Method.Valid() {
		return nil, apperrors.Invalidf("method must be %s or %s", MethodCard, MethodCrypto)
	}
	if !req.Status.Valid() {
		return nil, apperrors.Invalidf("unknown payment status %q", req.Status)
	}

	var out Payment
	if err := c.gw.Post(ctx, "/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Payments lists the user's operations, newest first.
func (c *Client) Payments(ctx context.Context, userID int64) ([]Payment, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out []Payment
	if err := c.gw.Get(ctx, withQuery("/payments", map[string]string{"userId": idParam(userID)}), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Payment(ctx context.Context, id int64) (*Payment, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var out Payment
	if err := c.gw.Get(ctx, pathf("/payments/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Payment, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	status = PaymentStatus(strings.ToUpper(string(status)))
	if !status.Valid() {
		return nil, apperrors.Invalidf("unknown payment status %q", status)
	}
	var out Payment
	path := withQuery(pathf("/payments/%d/status", id), map[string]string{"status": string(status)})
	if err := c.gw.Patch(ctx, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePayment(ctx context.Context, id int64) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	return c.gw.Delete(ctx, pathf("/payments/%d", id), nil)
}

// Deposit tops up the balance: a PENDING operation is created and then settled.
func (c *Client) Deposit(ctx context.Context, userID, amount int64, method PaymentMethod) (*Payment, error) {
	return c.transfer(ctx, PaymentDeposit, userID, amount, method)
}

// Withdraw takes money out of the balance, settled the same way as Deposit.
func (c *Client) Withdraw(ctx context.Context, userID, amount int64, method PaymentMethod) (*Payment, error) {
	return c.transfer(ctx, PaymentWithdraw, userID, amount, method)
}

func (c *Client) transfer(ctx context.Context, kind PaymentType, userID, amount int64, method PaymentMethod) (*Payment, error) {
	created, err := c.CreatePayment(ctx, CreatePaymentRequest{
		UserID: userID,
		Type:   kind,
		Method: method,
		Status: PaymentPending,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}
	return c.UpdatePaymentStatus(ctx, created.ID, PaymentSuccess)
}
