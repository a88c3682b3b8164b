package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenStore is what the session manager requires from the key-value store.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, memberID int64, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, memberID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, memberID int64) error
	BlacklistAccessToken(ctx context.Context, accessToken string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, accessToken string) (bool, error)
}

// LifetimeReader computes the remaining validity window of an access token.
// It is total: expired or unreadable tokens yield zero.
type LifetimeReader interface {
	RemainingLifetime(token string) time.Duration
}

// Service owns the server-side half of the token model: refresh-token
// persistence, access-token revocation and the composite logout protocol.
type Service interface {
	StartSession(ctx context.Context, memberID int64, refreshToken string, ttl time.Duration) error
	RevokeSession(ctx context.Context, memberID int64) error
	Blacklist(ctx context.Context, accessToken string, remaining time.Duration) error
	IsBlacklisted(ctx context.Context, accessToken string) (bool, error)
	Logout(ctx context.Context, accessToken string, memberID int64) error
}

type service struct {
	store TokenStore
	codec LifetimeReader
}

func NewService(store TokenStore, codec LifetimeReader) Service {
	return &service{store: store, codec: codec}
}

// StartSession stores the refresh token for the member, overwriting any prior
// session. Idempotent per member.
func (s *service) StartSession(ctx context.Context, memberID int64, refreshToken string, ttl time.Duration) error {
	return s.store.SaveRefreshToken(ctx, memberID, refreshToken, ttl)
}

// RevokeSession deletes the member's refresh token. An absent record is not
// an error.
func (s *service) RevokeSession(ctx context.Context, memberID int64) error {
	return s.store.DeleteRefreshToken(ctx, memberID)
}

// Blacklist records a revoked access token for its remaining lifetime. A
// non-positive remaining lifetime is a no-op: the token can no longer
// validate, and redis rejects non-positive TTLs.
func (s *service) Blacklist(ctx context.Context, accessToken string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	return s.store.BlacklistAccessToken(ctx, accessToken, remaining)
}

func (s *service) IsBlacklisted(ctx context.Context, accessToken string) (bool, error) {
	return s.store.IsBlacklisted(ctx, accessToken)
}

// Logout revokes the member's session and blacklists the access token for
// exactly the window during which it would otherwise still validate. The two
// writes are individually atomic but not transactional; both are idempotent,
// and a failure between them is bounded by the access token's own TTL.
func (s *service) Logout(ctx context.Context, accessToken string, memberID int64) error {
	if err := s.RevokeSession(ctx, memberID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	remaining := s.codec.RemainingLifetime(accessToken)
	if err := s.Blacklist(ctx, accessToken, remaining); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	slog.Info("session logged out", "member_id", memberID, "blacklist_ttl", remaining)
	return nil
}
