package exchange

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts import/export under the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/exchange/import", h.Import)
	api.GET("/exchange/export", h.Export)
}

func (h *Handler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	stats, err := h.service.Import(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Export(c echo.Context) error {
	filename := fmt.Sprintf("VetPath_Registry_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	if _, err := h.service.Export(c.Request().Context(), c.Response()); err != nil {
		return err
	}
	return nil
}
