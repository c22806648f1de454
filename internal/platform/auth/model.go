package auth

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is the single administrative account that owns the registry.
type AdminUser struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	ResetToken    *string    `json:"-"`
	ResetTokenExp *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Session describes an authenticated admin session as returned to clients.
type Session struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
