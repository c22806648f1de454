package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type mockRepo struct {
	users map[string]*AdminUser // by username
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[string]*AdminUser)}
}

func (m *mockRepo) Create(ctx context.Context, u *AdminUser) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.Username] = u
	return nil
}

func (m *mockRepo) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*AdminUser, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) SetResetToken(ctx context.Context, id uuid.UUID, token string, exp time.Time) error {
	for _, u := range m.users {
		if u.ID == id {
			u.ResetToken = &token
			u.ResetTokenExp = &exp
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) GetByResetToken(ctx context.Context, token string) (*AdminUser, error) {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	for _, u := range m.users {
		if u.ID == id {
			u.ResetToken = nil
			u.ResetTokenExp = nil
			return nil
		}
	}
	return ErrNotFound
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	svc := NewService(repo, []byte("test-secret-key-that-is-long-enough"), time.Hour, zerolog.Nop())
	return svc, repo
}

func seedAdmin(t *testing.T, repo *mockRepo, username, password string) *AdminUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &AdminUser{ID: uuid.New(), Username: username, PasswordHash: string(hash)}
	repo.users[username] = u
	return u
}

func TestLogin_Success(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "correct-horse")

	token, session, err := svc.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token == "" {
		t.Error("expected non-empty token")
	}
	if session.Username != "admin" {
		t.Errorf("expected session username admin, got %s", session.Username)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "correct-horse")

	_, _, err := svc.Login(context.Background(), "admin", "wrong")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody", "anything")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "admin", "correct-horse")

	token, _, err := svc.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username admin, got %s", claims.Username)
	}
	if claims.Subject != u.ID.String() {
		t.Errorf("expected subject %s, got %s", u.ID, claims.Subject)
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Verify("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "correct-horse")
	token, _, _ := svc.Login(context.Background(), "admin", "correct-horse")

	other := NewService(repo, []byte("a-completely-different-secret-key"), time.Hour, zerolog.Nop())
	if _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequestReset_IssuesToken(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "admin", "correct-horse")

	if err := svc.RequestReset(context.Background(), "admin"); err != nil {
		t.Fatalf("RequestReset() error: %v", err)
	}
	if u.ResetToken == nil || *u.ResetToken == "" {
		t.Fatal("expected reset token to be stored")
	}
	if u.ResetTokenExp == nil || !u.ResetTokenExp.After(time.Now()) {
		t.Error("expected reset token expiry in the future")
	}
}

func TestRequestReset_UnknownUserIsSilent(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RequestReset(context.Background(), "nobody"); err != nil {
		t.Fatalf("expected nil error for unknown user, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "old-password")

	if err := svc.ChangePassword(context.Background(), "admin", "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "admin", "new-password"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "admin", "old-password"); err != ErrInvalidCredentials {
		t.Errorf("expected old password to be rejected, got %v", err)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "old-password")

	err := svc.ChangePassword(context.Background(), "admin", "wrong", "new-password")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "old-password")

	err := svc.ChangePassword(context.Background(), "admin", "old-password", "short")
	if err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestResetPassword_WithToken(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "admin", "old-password")

	if err := svc.RequestReset(context.Background(), "admin"); err != nil {
		t.Fatalf("RequestReset() error: %v", err)
	}
	token := *u.ResetToken

	if err := svc.ResetPassword(context.Background(), token, "new-password"); err != nil {
		t.Fatalf("ResetPassword() error: %v", err)
	}
	if u.ResetToken != nil {
		t.Error("expected reset token to be cleared after use")
	}

	if _, _, err := svc.Login(context.Background(), "admin", "new-password"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "admin", "old-password")

	token := "expired-token"
	past := time.Now().Add(-time.Minute)
	u.ResetToken = &token
	u.ResetTokenExp = &past

	err := svc.ResetPassword(context.Background(), token, "new-password")
	if err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCreateAdmin_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateAdmin(ctx, "", "long-enough-password"); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := svc.CreateAdmin(ctx, "admin", "short"); err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	u, err := svc.CreateAdmin(ctx, "admin", "long-enough-password")
	if err != nil {
		t.Fatalf("CreateAdmin() error: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Error("expected assigned id")
	}
	if u.PasswordHash == "long-enough-password" {
		t.Error("password must not be stored in clear")
	}
}
