package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/membergate/api/internal/domain"
)

// Key prefixes are a persisted-state contract shared with already-deployed
// data. Do not change them.
const (
	refreshPrefix   = "jwt:refresh:"
	blacklistPrefix = "jwt:blacklist:"
)

// TokenStore keeps refresh tokens and the access-token blacklist in redis.
// Both record kinds expire on their own; nothing else touches these keys.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// SaveRefreshToken stores the member's refresh token, overwriting any prior
// one. One live record per member.
func (s *TokenStore) SaveRefreshToken(ctx context.Context, memberID int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(memberID), token, ttl).Err(); err != nil {
		return storeErr("save refresh token", err)
	}
	return nil
}

// GetRefreshToken returns the stored refresh token, or domain.ErrNotFound if
// none exists (or it expired).
func (s *TokenStore) GetRefreshToken(ctx context.Context, memberID int64) (string, error) {
	v, err := s.client.Get(ctx, refreshKey(memberID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", storeErr("get refresh token", err)
	}
	return v, nil
}

// DeleteRefreshToken removes the member's refresh token. Deleting an absent
// record is not an error.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, memberID int64) error {
	if err := s.client.Del(ctx, refreshKey(memberID)).Err(); err != nil {
		return storeErr("delete refresh token", err)
	}
	return nil
}

// BlacklistAccessToken records a revoked access token for the given TTL, the
// window during which the token would otherwise still validate.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, accessToken string, ttl time.Duration) error {
	if err := s.client.Set(ctx, blacklistKey(accessToken), "true", ttl).Err(); err != nil {
		return storeErr("blacklist access token", err)
	}
	return nil
}

// IsBlacklisted reports whether the access token was revoked.
func (s *TokenStore) IsBlacklisted(ctx context.Context, accessToken string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(accessToken)).Result()
	if err != nil {
		return false, storeErr("blacklist check", err)
	}
	return n > 0, nil
}

func refreshKey(memberID int64) string {
	return fmt.Sprintf("%s%d", refreshPrefix, memberID)
}

func blacklistKey(token string) string {
	return blacklistPrefix + token
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}
