package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrTokenNotFound means the token was never issued or has expired.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore holds login tokens issued at authentication. Tokens map
// back to the account they were issued for.
type TokenStore interface {
	Put(ctx context.Context, token, account string) error
	Account(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// MemoryTokenStore keeps tokens in process memory. Suitable for a
// single-node deployment; tokens vanish on restart.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
	ttl    time.Duration
}

type memoryToken struct {
	account string
	expires time.Time
}

func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: map[string]memoryToken{},
		ttl:    ttl,
	}
}

func (s *MemoryTokenStore) Put(_ context.Context, token, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{
		account: account,
		expires: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryTokenStore) Account(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	t, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(t.expires) {
		return "", ErrTokenNotFound
	}
	return t.account, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// RedisTokenStore backs tokens with redis so multiple server nodes can
// share them. Keys carry a TTL; redis handles expiry.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisTokenStore{client: client, ttl: ttl}, nil
}

func tokenKey(token string) string {
	return "login-token:" + token
}

func (s *RedisTokenStore) Put(ctx context.Context, token, account string) error {
	return s.client.Set(ctx, tokenKey(token), account, s.ttl).Err()
}

func (s *RedisTokenStore) Account(ctx context.Context, token string) (string, error) {
	account, err := s.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetching token: %w", err)
	}
	return account, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
