package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore(time.Hour)

	if err := s.Put(ctx, "tok-1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, err := s.Account(ctx, "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "account", account, "alice")

	if err := s.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.Account(ctx, "tok-1")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore(-time.Second) // already expired

	if err := s.Put(ctx, "tok-1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.Account(ctx, "tok-1")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound for expired token, got %v", err)
	}
}

func TestMemoryTokenStoreUnknown(t *testing.T) {
	s := NewMemoryTokenStore(time.Hour)
	_, err := s.Account(context.Background(), "never-issued")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}
