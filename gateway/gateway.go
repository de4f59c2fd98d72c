// Package gateway performs every outbound call to the market backend. It injects the
// bearer credential, normalises responses and turns every failure into a *Failure that is
// both returned to the caller and broadcast to the registered observers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-Id"

	contentTypeJSON = "application/json"
)

// FailureObserver receives every failure the gateway reports. Typically the UI shell.
type FailureObserver func(Failure)

// UnauthorizedObserver is invoked once per call that fails with 401.
type UnauthorizedObserver func()

// Gateway mediates all calls to one backend origin.
type Gateway struct {
	baseURL     string
	client      *http.Client
	tokens      oauth2.TokenSource
	logger      zerolog.Logger
	dedupWindow time.Duration
	logWindow   *LogWindow
	nowTime     func() time.Time
	requestID   func() string

	mu             sync.RWMutex
	onFailure      FailureObserver
	onUnauthorized UnauthorizedObserver
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client. Timeouts are the client's business.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithTokenSource sets where the bearer credential is read from on every call.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(g *Gateway) {
		g.tokens = ts
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithNowTime sets the clock used by the log dedup window (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Gateway) {
		if nowFunc != nil {
			g.nowTime = nowFunc
		}
	}
}

func WithDedupWindow(window time.Duration) Option {
	return func(g *Gateway) {
		g.dedupWindow = window
	}
}

func WithFailureObserver(fn FailureObserver) Option {
	return func(g *Gateway) {
		g.onFailure = fn
	}
}

func WithUnauthorizedObserver(fn UnauthorizedObserver) Option {
	return func(g *Gateway) {
		g.onUnauthorized = fn
	}
}

// WithRequestIDs replaces the X-Request-Id generator.
func WithRequestIDs(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.requestID = fn
		}
	}
}

// New creates a gateway for baseURL. Relative paths are appended to it verbatim.
func New(baseURL string, options ...Option) *Gateway {
	g := &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{},
		logger:      zerolog.Nop(),
		dedupWindow: DefaultDedupWindow,
		nowTime:     time.Now,
		requestID:   uuid.NewString,
	}
	for _, opt := range options {
		opt(g)
	}
	g.logWindow = NewLogWindow(g.dedupWindow, g.nowTime)
	return g
}

// BaseURL returns the backend origin.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// SetFailureObserver replaces the failure observer. Last registration wins.
func (g *Gateway) SetFailureObserver(fn FailureObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onFailure = fn
}

// SetUnauthorizedObserver replaces the 401 observer. Last registration wins.
func (g *Gateway) SetUnauthorizedObserver(fn UnauthorizedObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUnauthorized = fn
}

func (g *Gateway) observers() (FailureObserver, UnauthorizedObserver) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.onFailure, g.onUnauthorized
}

// Do issues one call. Every error returned is a *Failure.
func (g *Gateway) Do(ctx context.Context, r Request) (*Result, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	requestID := g.requestID()

	var body io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			f := requestFailure(apperrors.Wrapf(apperrors.ErrEncodeBody, "%T: %v", r.Body, err))
			return nil, g.fail(ctx, method, r.Path, requestID, f)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+r.Path, body)
	if err != nil {
		return nil, g.fail(ctx, method, r.Path, requestID, requestFailure(err))
	}
	g.applyHeaders(req, requestID, r.Header)

	start := g.nowTime()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.fail(ctx, method, r.Path, requestID, transportFailure(err))
	}
	defer resp.Body.Close()

	g.logger.Debug().
		Str("method", method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("duration", g.nowTime().Sub(start)).
		Str("request_id", requestID).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			raw = nil
		}
		f := statusFailure(resp.StatusCode, string(raw))
		if r.expects(resp.StatusCode) {
			f.Method, f.Path, f.RequestID = method, r.Path, requestID
			return nil, f
		}
		return nil, g.fail(ctx, method, r.Path, requestID, f)
	}

	result := &Result{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get(HeaderContentType),
		RequestID:   requestID,
	}
	if resp.StatusCode == http.StatusNoContent {
		result.Kind = KindEmpty
		return result, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, method, r.Path, requestID, transportFailure(err))
	}
	result.Body = raw
	result.Kind = KindText
	if isJSON(result.ContentType) {
		if json.Valid(raw) {
			result.Kind = KindJSON
		} else {
			g.logger.Debug().Str("path", r.Path).Str("request_id", requestID).Msg("malformed json response, returning text")
		}
	}
	return result, nil
}

func (g *Gateway) applyHeaders(req *http.Request, requestID string, extra http.Header) {
	req.Header.Set(HeaderContentType, contentTypeJSON)
	req.Header.Set(HeaderRequestID, requestID)
	if tok := g.credential(); tok != nil {
		tok.SetAuthHeader(req)
	}
	for k, values := range extra {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
}

func (g *Gateway) credential() *oauth2.Token {
	if g.tokens == nil {
		return nil
	}
	tok, err := g.tokens.Token()
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrCredentialNotFound) {
			g.logger.Warn().Err(err).Msg("credential unavailable, sending request without it")
		}
		return nil
	}
	if tok == nil || tok.AccessToken == "" {
		return nil
	}
	return tok
}

// fail completes a failure: observers, deduplicated log line. A call whose context was
// cancelled by the caller is returned without notifying anyone. An expired deadline is a
// transport failure like any other.
func (g *Gateway) fail(ctx context.Context, method, path, requestID string, f *Failure) error {
	f.Method = method
	f.Path = path
	f.RequestID = requestID

	if f.Status == 0 && apperrors.Is(ctx.Err(), context.Canceled) {
		f.cause = ctx.Err()
		g.logger.Debug().Str("method", method).Str("path", path).Err(ctx.Err()).Msg("request abandoned")
		return f
	}

	onFailure, onUnauthorized := g.observers()
	if onFailure != nil {
		f.Observed = true
		onFailure(*f)
	}
	if f.Status == http.StatusUnauthorized && onUnauthorized != nil {
		onUnauthorized()
	}

	if g.logWindow.Allow(dedupKey(f.Status, path, f.Message)) {
		g.logger.Error().
			Int("status", f.Status).
			Str("method", method).
			Str("path", path).
			Str("reason", f.Message).
			Str("details", f.Details).
			Str("request_id", requestID).
			Msg("request failed")
	}
	return f
}

func dedupKey(status int, path, message string) string {
	return fmt.Sprintf("%d:%s:%s", status, path, message)
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), contentTypeJSON)
}
