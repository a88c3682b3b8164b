package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/membergate/api/internal/domain"
)

// Key prefixes are a persisted-state contract; see token_store.go.
const (
	codePrefix     = "email:"
	cooldownPrefix = "email:cooldown:"
	verifiedPrefix = "email:verified:"
)

// VerificationStore keeps one-time email codes, the per-address send cooldown
// and the short-lived verified flag in redis.
type VerificationStore struct {
	client *redis.Client
}

func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

// SaveCode stores the code for the address, replacing any outstanding one and
// restarting its TTL.
func (s *VerificationStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, codePrefix+email, code, ttl).Err(); err != nil {
		return storeErr("save verification code", err)
	}
	return nil
}

// GetCode returns the outstanding code for the address, or domain.ErrNotFound.
func (s *VerificationStore) GetCode(ctx context.Context, email string) (string, error) {
	v, err := s.client.Get(ctx, codePrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", storeErr("get verification code", err)
	}
	return v, nil
}

// StartCooldown marks the address as recently-sent-to for the given TTL.
func (s *VerificationStore) StartCooldown(ctx context.Context, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, cooldownPrefix+email, "cooldown", ttl).Err(); err != nil {
		return storeErr("start cooldown", err)
	}
	return nil
}

// InCooldown reports whether a cooldown marker exists for the address.
func (s *VerificationStore) InCooldown(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, cooldownPrefix+email).Result()
	if err != nil {
		return false, storeErr("cooldown check", err)
	}
	return n > 0, nil
}

// MarkVerified writes the verified flag for the address.
func (s *VerificationStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, verifiedPrefix+email, "true", ttl).Err(); err != nil {
		return storeErr("mark verified", err)
	}
	return nil
}

// IsVerified reports whether the address carries a live verified flag. Only
// the literal stored value "true" counts, not mere key presence.
func (s *VerificationStore) IsVerified(ctx context.Context, email string) (bool, error) {
	v, err := s.client.Get(ctx, verifiedPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("verified check", err)
	}
	return v == "true", nil
}
