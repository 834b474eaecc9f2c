package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/storage"
)

const defaultTokenTTL = 24 * time.Hour

type TokenBackend int

const (
	TokenBackendMemory TokenBackend = iota
	TokenBackendRedis
)

func (b *TokenBackend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "memory":
		*b = TokenBackendMemory
	case "redis":
		*b = TokenBackendRedis
	default:
		return fmt.Errorf("unknown token backend: %s", text)
	}
	return nil
}

type TokenConfig struct {
	Backend TokenBackend `json:"backend"`
	TTL     string       `json:"ttl,omitempty"`

	// Redis backend.
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

func (c *TokenConfig) Validate() error {
	el := errors.NewErrorList()

	if c.TTL != "" {
		if _, err := time.ParseDuration(c.TTL); err != nil {
			el.Add(fmt.Errorf("parsing ttl: %w", err))
		}
	}
	if c.Backend == TokenBackendRedis && c.Addr == "" {
		el.Add(fmt.Errorf("addr is required for the redis backend"))
	}

	return el.Err()
}

func (c *TokenConfig) BuildTokenStore(ctx context.Context) (storage.TokenStore, error) {
	ttl := defaultTokenTTL
	if c.TTL != "" {
		d, err := time.ParseDuration(c.TTL)
		if err != nil {
			return nil, fmt.Errorf("parsing ttl: %w", err)
		}
		ttl = d
	}

	switch c.Backend {
	case TokenBackendMemory:
		return storage.NewMemoryTokenStore(ttl), nil
	case TokenBackendRedis:
		return storage.NewRedisTokenStore(ctx, c.Addr, c.Password, c.DB, ttl)
	default:
		return nil, fmt.Errorf("unknown token backend: %v", c.Backend)
	}
}
