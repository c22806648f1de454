package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type chatClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Handler exposes the free-form assistant over HTTP.
type Handler struct {
	client chatClient
}

func NewHandler(client chatClient) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/assistant/chat", h.Chat)
}

// Chat relays a conversation to the completion endpoint and returns the
// assistant reply as plain text. Failures are surfaced, never retried.
func (h *Handler) Chat(c echo.Context) error {
	var req struct {
		Messages []Message `json:"messages"`
	}
	if err := c.Bind(&req); err != nil || len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages are required")
	}

	reply, err := h.client.Chat(c.Request().Context(), req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimited):
			return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
		case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrMalformedResponse):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return err
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"reply": reply})
}
