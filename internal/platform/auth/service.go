package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("admin user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const (
	minPasswordLen = 8
	resetTokenTTL  = 30 * time.Minute
)

// Claims is the JWT payload for an admin session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Service issues and verifies admin session tokens.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
}

func NewService(repo Repository, secret []byte, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		secret: secret,
		ttl:    ttl,
		logger: logger,
	}
}

// Login verifies the credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Session, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a hash comparison so missing users take as long as bad passwords
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMye"), []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("look up admin user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	return s.issueToken(u)
}

func (s *Service) issueToken(u *AdminUser) (string, *Session, error) {
	now := time.Now()
	exp := now.Add(s.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: u.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return signed, &Session{Username: u.Username, ExpiresAt: exp}, nil
}

// Verify parses and validates a session token, returning its claims.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequestReset issues a one-time password reset token for the named account.
// The token is written to the log for out-of-band delivery; there is no
// mail integration. Unknown usernames are not distinguishable to callers.
func (s *Service) RequestReset(ctx context.Context, username string) error {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up admin user: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.repo.SetResetToken(ctx, u.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info().
		Str("username", u.Username).
		Str("reset_token", token).
		Time("expires", time.Now().Add(resetTokenTTL)).
		Msg("password reset token issued")

	return nil
}

// ChangePassword updates the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, u, newPassword)
}

// ResetPassword updates the password using a previously issued reset token.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	u, err := s.repo.GetByResetToken(ctx, resetToken)
	if err != nil {
		return ErrInvalidToken
	}
	if u.ResetTokenExp == nil || time.Now().After(*u.ResetTokenExp) {
		return ErrInvalidToken
	}

	if err := s.setPassword(ctx, u, newPassword); err != nil {
		return err
	}
	if err := s.repo.ClearResetToken(ctx, u.ID); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

func (s *Service) setPassword(ctx context.Context, u *AdminUser, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateAdmin provisions an admin account. Used by the CLI at setup time.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*AdminUser, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &AdminUser{Username: username, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	return u, nil
}

// SetAdminPassword force-sets a password without verifying the current one.
// CLI only; never exposed over HTTP.
func (s *Service) SetAdminPassword(ctx context.Context, username, password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u, password)
}
