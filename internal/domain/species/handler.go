package species

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the species routes. Listing is public so the
// catalog can render species chips; registration requires a session.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.GET("/species", h.ListSpecies)
	api.POST("/species", h.RegisterSpecies)
}

// ListSpecies returns the built-in enumeration plus registered custom
// labels.
func (h *Handler) ListSpecies(c echo.Context) error {
	custom, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list species")
	}
	if custom == nil {
		custom = []*CustomSpecies{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"builtin": disease.BuiltinSpecies,
		"custom":  custom,
	})
}

type registerRequest struct {
	Label string `json:"label"`
}

func (h *Handler) RegisterSpecies(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cs, err := h.svc.Register(c.Request().Context(), req.Label)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, cs)
}
