// Package redis backs the client store with Redis, for deployments where
// several scoring terminals (e.g. a club's scoreboard displays) share one
// credential state.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bidascore/bidascore-go/internal/clientstore"
	"github.com/bidascore/bidascore-go/internal/model"
)

// Store is a Redis-backed implementation of the client store
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store and verifies the connection
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ clientstore.Store = (*Store)(nil)

func (s *Store) GetPIN(ctx context.Context, roomID model.RoomID) (string, error) {
	pin, err := s.client.Get(ctx, pinKey(roomID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", clientstore.ErrNotFound
		}
		return "", err
	}
	return pin, nil
}

func (s *Store) SavePIN(ctx context.Context, roomID model.RoomID, pin string) error {
	return s.client.Set(ctx, pinKey(roomID), pin, s.cfg.PinTTL).Err()
}

func (s *Store) DeletePIN(ctx context.Context, roomID model.RoomID) error {
	return s.client.Del(ctx, pinKey(roomID)).Err()
}

func (s *Store) GetGuestToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, guestTokenKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", clientstore.ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (s *Store) SaveGuestToken(ctx context.Context, token string) error {
	// Guest tokens are never rotated, so they never expire.
	return s.client.Set(ctx, guestTokenKey(), token, 0).Err()
}
