package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

// Request describes one call. Path is relative to the gateway origin and may carry a query.
type Request struct {
	Method string
	Path   string
	Body   any         // JSON encoded when non-nil
	Header http.Header // overrides the default headers

	// Expected lists failure statuses the caller handles itself. Such failures are still
	// returned but neither observed nor logged.
	Expected []int
}

// RequestOption adjusts a Request built by the verb helpers.
type RequestOption func(*Request)

// WithHeader sets an extra header, replacing any default with the same name.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// WithExpectedStatus marks statuses the caller treats as an outcome rather than a failure,
// such as a 404 meaning "nothing there yet".
func WithExpectedStatus(codes ...int) RequestOption {
	return func(r *Request) {
		r.Expected = append(r.Expected, codes...)
	}
}

func (r Request) expects(status int) bool {
	for _, code := range r.Expected {
		if code == status {
			return true
		}
	}
	return false
}

// Kind tells how the success body was interpreted.
type Kind int

const (
	KindEmpty Kind = iota // 204, nothing read
	KindText              // non JSON content type, or malformed JSON
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Result is a successful response.
type Result struct {
	Status      int
	ContentType string
	Kind        Kind
	Body        []byte
	RequestID   string
}

// Text returns the raw body.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Decode stores the result in out. Empty results leave out untouched, text results
// can only be stored in a *string or *[]byte.
func (r *Result) Decode(out any) error {
	if r == nil || out == nil || r.Kind == KindEmpty {
		return nil
	}
	if r.Kind == KindText {
		switch v := out.(type) {
		case *string:
			*v = string(r.Body)
			return nil
		case *[]byte:
			*v = append((*v)[:0], r.Body...)
			return nil
		}
		return apperrors.Wrapf(apperrors.ErrNotJSON, "decode %q into %T", r.ContentType, out)
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return apperrors.Wrapf(err, "decode response into %T", out)
	}
	return nil
}

func newRequest(method, path string, body any, opts []RequestOption) Request {
	r := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (g *Gateway) call(ctx context.Context, r Request, out any) error {
	res, err := g.Do(ctx, r)
	if err != nil {
		return err
	}
	return res.Decode(out)
}

// Get issues a GET and decodes the result into out (which may be nil).
func (g *Gateway) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return g.call(ctx, newRequest(http.MethodGet, path, nil, opts), out)
}

// Post issues a POST with an optional JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.call(ctx, newRequest(http.MethodPost, path, body, opts), out)
}

// Patch issues a PATCH with an optional JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.call(ctx, newRequest(http.MethodPatch, path, body, opts), out)
}

// Delete issues a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return g.call(ctx, newRequest(http.MethodDelete, path, nil, opts), out)
}
