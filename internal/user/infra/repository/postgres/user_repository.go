package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements domain.UserRepository for PostgreSQL.
// It also serves as the bidder directory of the auction module.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns the user id or domain.ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, created_at FROM users WHERE id = $1`

	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// Exists reports whether id is a registered user.
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", id, err)
	}
	return exists, nil
}

// Register inserts id, registering an existing user returns it unchanged.
func (r *UserRepository) Register(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
        INSERT INTO users (id) VALUES ($1)
        ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
        RETURNING id, created_at
    `
	user := &domain.User{}
	if err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.CreatedAt); err != nil {
		return nil, fmt.Errorf("register user %s: %w", id, err)
	}
	return user, nil
}
