package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists admin accounts.
type Repository interface {
	Create(ctx context.Context, u *AdminUser) error
	GetByUsername(ctx context.Context, username string) (*AdminUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, exp time.Time) error
	GetByResetToken(ctx context.Context, token string) (*AdminUser, error)
	ClearResetToken(ctx context.Context, id uuid.UUID) error
}
