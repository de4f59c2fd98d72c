// Package credentials holds the bearer credential issued by the market backend and
// persists it across restarts through a pluggable Store.
package credentials

import (
	"context"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

// TokenKey names the credential slot in every store.
const TokenKey = "cs_market_token"

// ErrNotFound is returned by a Store that holds no credential.
var ErrNotFound = apperrors.ErrCredentialNotFound

// Store persists a single credential.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
