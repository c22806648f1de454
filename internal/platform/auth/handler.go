package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout, RequireSession(h.svc))
	g.GET("/session", h.GetSession, RequireSession(h.svc))
	g.POST("/reset-request", h.RequestReset)
	g.POST("/password", h.UpdatePassword)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	token, session, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, Session: session})
}

// Logout acknowledges the logout. Tokens are stateless; the client discards
// its copy and the token ages out at its expiry.
func (h *Handler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]string{
		"username": UsernameFromContext(ctx),
		"admin_id": AdminIDFromContext(ctx),
	})
}

type resetRequest struct {
	Username string `json:"username"`
}

func (h *Handler) RequestReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	if err := h.svc.RequestReset(c.Request().Context(), req.Username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "reset request failed")
	}

	// Same response whether or not the account exists
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset token has been issued",
	})
}

type passwordRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	ResetToken      string `json:"reset_token"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword changes the admin password using either the current
// password or a previously issued reset token.
func (h *Handler) UpdatePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new_password is required")
	}

	ctx := c.Request().Context()

	var err error
	switch {
	case req.ResetToken != "":
		err = h.svc.ResetPassword(ctx, req.ResetToken, req.NewPassword)
	case req.CurrentPassword != "":
		if req.Username == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "username is required")
		}
		err = h.svc.ChangePassword(ctx, req.Username, req.CurrentPassword, req.NewPassword)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "current_password or reset_token is required")
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "password update failed")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
