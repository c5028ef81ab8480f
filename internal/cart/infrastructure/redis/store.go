package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zuvees/storefront/internal/cart/domain"
)

// Store keeps one cart per session key. It is a dumb ledger: no stock
// checks, no cross-key transactions. A session driven by concurrent tabs
// gets last-write-wins, which the host session transport already allows.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    30 * 24 * time.Hour, // matches the session cookie lifetime
	}
}

// Get returns the stored cart, or an empty cart when the key is absent.
func (s *Store) Get(ctx context.Context, sessionKey string) (domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (s *Store) Save(ctx context.Context, sessionKey string, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sessionKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, cartKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionKey string) string {
	return fmt.Sprintf("cart:%s", sessionKey)
}
