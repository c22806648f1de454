package disease

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetpath/vetpath/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the catalog (public) and editing (authenticated)
// routes.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.GET("/diseases", h.ListDiseases)
	public.GET("/diseases/:id", h.GetDisease)
	public.POST("/diseases/:id/view", h.RecordView)

	api.POST("/diseases", h.SaveDisease)
	api.PUT("/diseases/:id", h.SaveDisease)
	api.DELETE("/diseases/:id", h.DeleteDisease)
}

// ListDiseases serves the catalog: optional substring filter (q), sort
// mode (sort), and pagination.
func (h *Handler) ListDiseases(c echo.Context) error {
	all, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list diseases")
	}

	sortMode := c.QueryParam("sort")
	if sortMode != "" && !ValidSortMode(sortMode) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sort mode: "+sortMode)
	}

	filtered := Filter(all, c.QueryParam("q"))
	sorted := Sort(filtered, sortMode)

	p := pagination.FromContext(c)
	start, end := p.Slice(len(sorted))
	page := sorted[start:end]
	if page == nil {
		page = []*Disease{}
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(sorted), p.Limit, p.Offset))
}

func (h *Handler) GetDisease(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "disease not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load disease")
	}
	return c.JSON(http.StatusOK, d)
}

// RecordView applies exactly one view-count increment.
func (h *Handler) RecordView(c echo.Context) error {
	count, err := h.svc.RecordView(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "disease not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record view")
	}
	return c.JSON(http.StatusOK, map[string]int{"search_count": count})
}

func (h *Handler) SaveDisease(c echo.Context) error {
	var d Disease
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if id := c.Param("id"); id != "" {
		d.ID = id
	}

	saved, err := h.svc.Save(c.Request().Context(), &d)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteDisease(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "disease not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete disease")
	}
	return c.NoContent(http.StatusNoContent)
}
