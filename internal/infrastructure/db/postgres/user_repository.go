package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

const (
	userColumns = `id, name, email, password, profile, created_at, updated_at`

	selectUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	selectUserByID    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	insertUser        = `INSERT INTO users (name, email, password, profile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	updateUserProfile = `UPDATE users SET profile = $1, updated_at = $2 WHERE id = $3`
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, selectUserByEmail, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, selectUserByID, id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u domain.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created := *user
	err := r.db.QueryRowxContext(ctx, insertUser,
		user.Name, user.Email, user.Password, user.Profile, user.CreatedAt, user.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, profile string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, updateUserProfile, profile, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
