package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/membergate/api/internal/domain"
	"github.com/membergate/api/internal/infrastructure/mail"
)

// Store is what the verification manager requires from the key-value store.
type Store interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	StartCooldown(ctx context.Context, email string, ttl time.Duration) error
	InCooldown(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
}

// TTLs configures the three independent expiry windows. The deliberate
// ordering cooldown < code < verified throttles the mail transport while
// leaving the caller a longer window to finish a multi-step signup.
type TTLs struct {
	Code     time.Duration
	Cooldown time.Duration
	Verified time.Duration
}

// Service issues, checks and rate-limits one-time email codes.
type Service interface {
	RequestCode(ctx context.Context, email string) error
	CheckCode(ctx context.Context, email, code string) error
	MarkVerified(ctx context.Context, email string) error
	IsVerified(ctx context.Context, email string) (bool, error)
}

type service struct {
	store  Store
	mailer mail.Mailer
	ttls   TTLs
}

func NewService(store Store, mailer mail.Mailer, ttls TTLs) Service {
	return &service{store: store, mailer: mailer, ttls: ttls}
}

// RequestCode generates a fresh 6-digit code and mails it to the address.
// A live cooldown marker fails the request with no side effects. Store writes
// happen only after the transport confirms dispatch, so a failed send never
// leaves a record describing a code nobody received.
func (s *service) RequestCode(ctx context.Context, email string) error {
	blocked, err := s.store.InCooldown(ctx, email)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("%s: %w", email, domain.ErrCooldownActive)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.mailer.SendVerificationCode(email, code); err != nil {
		return err
	}

	if err := s.store.SaveCode(ctx, email, code, s.ttls.Code); err != nil {
		return err
	}
	return s.store.StartCooldown(ctx, email, s.ttls.Cooldown)
}

// CheckCode succeeds iff the submitted code exactly matches the outstanding
// one. The code is not consumed: it stays valid until its own TTL so the
// follow-up mark-verified step can be retried.
func (s *service) CheckCode(ctx context.Context, email, code string) error {
	stored, err := s.store.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s: %w", email, domain.ErrCodeInvalid)
		}
		return err
	}
	if stored != code {
		return fmt.Errorf("%s: %w", email, domain.ErrCodeInvalid)
	}
	return nil
}

// MarkVerified writes the verified flag unconditionally. Callers are
// responsible for sequencing check-then-mark.
func (s *service) MarkVerified(ctx context.Context, email string) error {
	return s.store.MarkVerified(ctx, email, s.ttls.Verified)
}

func (s *service) IsVerified(ctx context.Context, email string) (bool, error) {
	return s.store.IsVerified(ctx, email)
}

// generateCode returns a uniformly random 6-digit code, leading zeros kept.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
