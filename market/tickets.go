package market

import (
	"context"
	"strings"
)

func (c *Client) CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	if err := validateID("userId", req.UserID); err != nil {
		return nil, err
	}
	if err := validateRequired("topic", req.Topic); err != nil {
		return nil, err
	}
	if err := validateRequired("description", req.Description); err != nil {
		return nil, err
	}
	for _, a := range req.Attachments {
		if err := validateAttachment(a); err != nil {
			return nil, err
		}
	}
	req.Topic = strings.TrimSpace(req.Topic)
	req.Description = strings.TrimSpace(req.Description)

	var out Ticket
	if err := c.gw.Post(ctx, "/tickets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Tickets(ctx context.Context, userID int64) ([]Ticket, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	var out []Ticket
	if err := c.gw.Get(ctx, withQuery("/tickets", map[string]string{"userId": idParam(userID)}), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ticket(ctx context.Context, ticketID int64) (*Ticket, error) {
	if err := validateID("ticketId", ticketID); err != nil {
		return nil, err
	}
	var out Ticket
	if err := c.gw.Get(ctx, pathf("/tickets/%d", ticketID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Attachments(ctx context.Context, ticketID int64) ([]Attachment, error) {
	if err := validateID("ticketId", ticketID); err != nil {
		return nil, err
	}
	var out []Attachment
	if err := c.gw.Get(ctx, pathf("/tickets/%d/attachments", ticketID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddAttachment(ctx context.Context, ticketID int64, a Attachment) (*Attachment, error) {
	if err := validateID("ticketId", ticketID); err != nil {
		return nil, err
	}
	if err := validateAttachment(a); err != nil {
		return nil, err
	}
	a.ID = 0

	var out Attachment
	if err := c.gw.Post(ctx, pathf("/tickets/%d/attachments", ticketID), a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAttachment(ctx context.Context, attachmentID int64) error {
	if err := validateID("attachmentId", attachmentID); err != nil {
		return err
	}
	return c.gw.Delete(ctx, pathf("/tickets/attachments/%d", attachmentID), nil)
}
