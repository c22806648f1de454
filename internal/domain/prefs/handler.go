package prefs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetpath/vetpath/internal/platform/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/preferences", h.GetAll)
	api.PUT("/preferences/:key", h.Set)
	api.DELETE("/preferences/:key", h.Delete)
}

func clientID(c echo.Context) string {
	if name := auth.UsernameFromContext(c.Request().Context()); name != "" {
		return name
	}
	return "default"
}

func (h *Handler) GetAll(c echo.Context) error {
	prefs, err := h.service.GetAll(c.Request().Context(), clientID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *Handler) Set(c echo.Context) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.service.Set(c.Request().Context(), clientID(c), c.Param("key"), req.Value); err != nil {
		if errors.Is(err, ErrEmptyKey) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), clientID(c), c.Param("key")); err != nil {
		if errors.Is(err, ErrEmptyKey) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
