package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is a registered participant, bidders and auction owners are users
type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// UserRepository defines the persistence of users
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Register(ctx context.Context, id uuid.UUID) (*User, error)
}
