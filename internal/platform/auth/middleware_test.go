package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireSession_MissingHeader(t *testing.T) {
	svc, _ := newTestService(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireSession(svc)(func(c echo.Context) error {
		t.Error("handler should not be called")
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireSession_BadFormat(t *testing.T) {
	svc, _ := newTestService(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireSession(svc)(func(c echo.Context) error {
		t.Error("handler should not be called")
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireSession_ValidToken(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "admin", "correct-horse")
	token, _, err := svc.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := RequireSession(svc)(func(c echo.Context) error {
		called = true
		if got := UsernameFromContext(c.Request().Context()); got != "admin" {
			t.Errorf("expected username admin in context, got %q", got)
		}
		if AdminIDFromContext(c.Request().Context()) == "" {
			t.Error("expected admin id in context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequireSession_InvalidToken(t *testing.T) {
	svc, _ := newTestService(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus.token.here")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireSession(svc)(func(c echo.Context) error {
		t.Error("handler should not be called")
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
