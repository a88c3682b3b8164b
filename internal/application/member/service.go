package member

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/membergate/api/internal/application/session"
	"github.com/membergate/api/internal/application/verification"
	"github.com/membergate/api/internal/domain"
)

// TokenIssuer is the codec surface the member service needs.
type TokenIssuer interface {
	AccessToken(memberID int64) (string, error)
	RefreshToken() (string, error)
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"required,min=2,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type LoginResult struct {
	Member       *domain.Member
	AccessToken  string
	RefreshToken string
}

// Service covers the member lifecycle around the auth core: signup gated on a
// verified address, credential login that opens a session, and withdrawal
// that revokes it.
type Service interface {
	Signup(ctx context.Context, req SignUpRequest) (*domain.Member, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Withdraw(ctx context.Context, accessToken string, memberID int64) error
	Get(ctx context.Context, memberID int64) (*domain.Member, error)
	ChangePassword(ctx context.Context, memberID int64, req ChangePasswordRequest) (*domain.Member, error)
	ChangeNickname(ctx context.Context, memberID int64, nickname string) (*domain.Member, error)
}

type service struct {
	members    domain.MemberStore
	sessions   session.Service
	verifier   verification.Service
	issuer     TokenIssuer
	refreshTTL time.Duration
}

func NewService(members domain.MemberStore, sessions session.Service, verifier verification.Service, issuer TokenIssuer, refreshTTL time.Duration) Service {
	return &service{
		members:    members,
		sessions:   sessions,
		verifier:   verifier,
		issuer:     issuer,
		refreshTTL: refreshTTL,
	}
}

func (s *service) Signup(ctx context.Context, req SignUpRequest) (*domain.Member, error) {
	verified, err := s.verifier.IsVerified(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, fmt.Errorf("%s: %w", req.Email, domain.ErrEmailNotVerified)
	}

	if taken, err := s.members.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	if taken, err := s.members.ExistsByNickname(ctx, req.Nickname); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("nickname already in use: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	m := &domain.Member{
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: string(hash),
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	slog.Info("member signed up", "member_id", m.ID)
	return m, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	m, err := s.members.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	accessToken, err := s.issuer.AccessToken(m.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.RefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.StartSession(ctx, m.ID, refreshToken, s.refreshTTL); err != nil {
		return nil, err
	}
	return &LoginResult{Member: m, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Withdraw revokes the caller's session, blacklists the presented access
// token and soft-deletes the account.
func (s *service) Withdraw(ctx context.Context, accessToken string, memberID int64) error {
	if err := s.sessions.Logout(ctx, accessToken, memberID); err != nil {
		return err
	}
	return s.members.SoftDelete(ctx, memberID)
}

func (s *service) Get(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.members.GetByID(ctx, memberID)
}

func (s *service) ChangePassword(ctx context.Context, memberID int64, req ChangePasswordRequest) (*domain.Member, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, fmt.Errorf("current password does not match: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.NewPassword)) == nil {
		return nil, fmt.Errorf("new password must differ from the current one: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.members.UpdatePassword(ctx, memberID, string(hash)); err != nil {
		return nil, err
	}
	m.PasswordHash = string(hash)
	return m, nil
}

func (s *service) ChangeNickname(ctx context.Context, memberID int64, nickname string) (*domain.Member, error) {
	if taken, err := s.members.ExistsByNickname(ctx, nickname); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("nickname already in use: %w", domain.ErrConflict)
	}
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.members.UpdateNickname(ctx, memberID, nickname); err != nil {
		return nil, err
	}
	m.Nickname = nickname
	return m, nil
}
