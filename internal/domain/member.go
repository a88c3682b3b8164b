package domain

import (
	"context"
	"time"
)

// Member is an account row in the relational store. Sessions and verification
// state are not part of it; those live in redis and expire on their own.
type Member struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Nickname     string     `json:"nickname"`
	PasswordHash string     `json:"-"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MemberStore is the minimal contract the rest of the system requires from the
// relational member store. Soft-deleted members are invisible to every lookup.
type MemberStore interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateNickname(ctx context.Context, id int64, nickname string) error
	SoftDelete(ctx context.Context, id int64) error
}
