// Package redisstore keeps the credential in Redis, for deployments where several
// processes share one login.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/skins-market-client/credentials"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ credentials.Store = (*Store)(nil)

// Store saves the credential under <prefix>cs_market_token. JWT credentials get a TTL
// matching their exp claim; opaque ones never expire on their own.
type Store struct {
	client  redis.UniversalClient
	key     string
	nowTime func() time.Time
}

type Option func(*Store)

// WithNowTime sets the clock used to compute TTLs (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		if nowFunc != nil {
			s.nowTime = nowFunc
		}
	}
}

func New(client redis.UniversalClient, prefix string, options ...Option) *Store {
	s := &Store{
		client:  client,
		key:     prefix + credentials.TokenKey,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Key returns the Redis key in use.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", credentials.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	if token == "" {
		return "", credentials.ErrNotFound
	}
	return token, nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	var ttl time.Duration
	if claims := credentials.Inspect(token); !claims.Opaque && !claims.Expiry.IsZero() {
		ttl = claims.Expiry.Sub(s.nowTime())
		if ttl <= 0 {
			return apperrors.ErrCredentialExpired
		}
	}
	return s.client.Set(ctx, s.key, token, ttl).Err()
}

func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
