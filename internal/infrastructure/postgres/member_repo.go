package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/membergate/api/internal/domain"
)

// MemberRepo is the relational member store backed by pgx.
type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

// NewPool opens a pgx pool and pings it once.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the members table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			nickname TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const memberColumns = `id, email, nickname, password_hash, deleted_at, created_at, updated_at`

func (r *MemberRepo) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (email, nickname, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, m.Email, m.Nickname, m.PasswordHash).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *MemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.getOne(ctx, `SELECT `+memberColumns+` FROM members WHERE email = $1 AND deleted_at IS NULL`, email)
}

func (r *MemberRepo) getOne(ctx context.Context, query string, arg interface{}) (*domain.Member, error) {
	var m domain.Member
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.Email, &m.Nickname, &m.PasswordHash, &m.DeletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (r *MemberRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE email = $1 AND deleted_at IS NULL)`, email)
}

func (r *MemberRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE nickname = $1 AND deleted_at IS NULL)`, nickname)
}

func (r *MemberRepo) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("member existence check: %w", err)
	}
	return exists, nil
}

func (r *MemberRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, `UPDATE members SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, passwordHash)
}

func (r *MemberRepo) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	return r.update(ctx, `UPDATE members SET nickname = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, nickname)
}

func (r *MemberRepo) SoftDelete(ctx context.Context, id int64) error {
	return r.update(ctx, `UPDATE members SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
}

func (r *MemberRepo) update(ctx context.Context, query string, id int64, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
