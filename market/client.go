// Package market is the typed client for the skins market backend. Every call goes
// through the gateway, so failures reach the gateway's observers like any other call.
package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/skins-market-client/gateway"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/jrsteele09/skins-market-client/session"
)

var _ session.AuthAPI = (*Client)(nil)

type Client struct {
	gw      *gateway.Gateway
	nowTime func() time.Time
}

type Option func(*Client)

// WithNowTime sets the clock used to stamp locally built carts (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		if nowFunc != nil {
			c.nowTime = nowFunc
		}
	}
}

func New(gw *gateway.Gateway, options ...Option) *Client {
	c := &Client{gw: gw, nowTime: time.Now}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Gateway returns the gateway the client calls through.
func (c *Client) Gateway() *gateway.Gateway {
	return c.gw
}

func (c *Client) Register(ctx context.Context, req session.RegisterRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	if err := c.gw.Post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req session.LoginRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	if err := c.gw.Post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account the held credential belongs to.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var out session.User
	if err := c.gw.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNotAuthenticated, "empty /auth/me response")
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.gw.Post(ctx, "/auth/logout", nil, nil)
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// withQuery appends the non-empty values to path.
func withQuery(path string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func idParam(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func isNotFound(err error) bool {
	return gateway.IsStatus(err, http.StatusNotFound)
}
