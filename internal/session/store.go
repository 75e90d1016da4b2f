package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "crm:refresh:"

var ErrUnknownToken = errors.New("unknown refresh token")

// Store keeps issued refresh tokens in Redis so they can be revoked on
// logout. Tokens are stored hashed; key expiry matches the token TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func key(userID, token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshKeyPrefix + userID + ":" + hex.EncodeToString(sum[:])
}

func (s *Store) Save(ctx context.Context, userID, token string) error {
	return s.client.Set(ctx, key(userID, token), "1", s.ttl).Err()
}

// Validate reports whether the token was issued to the user and has not
// been revoked or expired.
func (s *Store) Validate(ctx context.Context, userID, token string) error {
	err := s.client.Get(ctx, key(userID, token)).Err()
	if errors.Is(err, redis.Nil) {
		return ErrUnknownToken
	}
	return err
}

func (s *Store) Revoke(ctx context.Context, userID, token string) error {
	return s.client.Del(ctx, key(userID, token)).Err()
}

// RevokeAll drops every refresh token for the user.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	iter := s.client.Scan(ctx, 0, refreshKeyPrefix+userID+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
