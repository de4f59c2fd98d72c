package config

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
)

// StoreType selects where the bearer token is persisted.
type StoreType string

const (
	StoreFile   StoreType = "file"
	StoreRedis  StoreType = "redis"
	StoreMemory StoreType = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreType.
func (s *StoreType) UnmarshalText(text []byte) error {
	v := StoreType(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case StoreFile, StoreRedis, StoreMemory:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid StoreType: %q (valid options: file, redis, memory)", string(text))
	}
}

type StoreConfig interface {
	GetCredentialStore() StoreType
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Store struct {
	Type           StoreType `env:"CREDENTIAL_STORE" envDefault:"file"`
	RedisAddr      string    `env:"REDIS_ADDR"`
	RedisPassword  string    `env:"REDIS_PASSWORD"`
	RedisDB        int       `env:"REDIS_DB"         envDefault:"0"`
	RedisKeyPrefix string    `env:"REDIS_KEY_PREFIX" envDefault:"market:"`
}

var _ StoreConfig = Store{}

func (s Store) GetCredentialStore() StoreType {
	return s.Type
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Store) GetRedisDB() int {
	return s.RedisDB
}

func (s Store) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}

func (s *Store) sanitize() error {
	if s.Type == StoreRedis && strings.TrimSpace(s.RedisAddr) == "" {
		return fmt.Errorf("%w: REDIS_ADDR is required when CREDENTIAL_STORE=redis", apperrors.ErrInvalidConfig)
	}
	if s.RedisDB < 0 {
		s.RedisDB = 0
	}
	return nil
}
