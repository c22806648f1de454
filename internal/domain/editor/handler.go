package editor

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vetpath/vetpath/internal/domain/disease"
	"github.com/vetpath/vetpath/internal/domain/species"
	"github.com/vetpath/vetpath/internal/platform/ai"
)

type Handler struct {
	manager    *Manager
	species    *species.Service
	researcher *Researcher
}

func NewHandler(manager *Manager, speciesSvc *species.Service, researcher *Researcher) *Handler {
	return &Handler{manager: manager, species: speciesSvc, researcher: researcher}
}

// RegisterRoutes mounts the editing surface under the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/editor/drafts", h.ListDrafts)
	api.POST("/editor/sessions", h.OpenSession)
	api.POST("/editor/sessions/:id/restore", h.RestoreSession)
	api.GET("/editor/sessions/:id", h.GetSession)
	api.DELETE("/editor/sessions/:id", h.DiscardSession)
	api.PATCH("/editor/sessions/:id", h.UpdateField)
	api.POST("/editor/sessions/:id/submit", h.Submit)

	api.POST("/editor/sessions/:id/species", h.SelectSpecies)
	api.DELETE("/editor/sessions/:id/species/:key", h.DeselectSpecies)
	api.PATCH("/editor/sessions/:id/species/:key", h.UpdateHostField)

	api.POST("/editor/sessions/:id/species/:key/treatments", h.AddTreatment)
	api.PATCH("/editor/sessions/:id/species/:key/treatments/:tid", h.UpdateTreatment)
	api.DELETE("/editor/sessions/:id/species/:key/treatments/:tid", h.RemoveTreatment)

	api.POST("/editor/sessions/:id/species/:key/custom-fields", h.AddCustomField)
	api.PATCH("/editor/sessions/:id/species/:key/custom-fields", h.UpdateCustomField)
	api.DELETE("/editor/sessions/:id/species/:key/custom-fields/:label", h.RemoveCustomField)

	api.POST("/editor/sessions/:id/species/:key/images", h.AttachImage)
	api.DELETE("/editor/sessions/:id/species/:key/images/:index", h.RemoveImage)

	api.POST("/editor/sessions/:id/species/:key/research", h.Research)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrHostNotFound),
		errors.Is(err, ErrDraftNotFound),
		errors.Is(err, disease.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSpeciesSelected), errors.Is(err, species.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoSpecies),
		errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrUnknownApplyMode),
		errors.Is(err, species.ErrEmptyLabel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, ai.ErrMalformedResponse):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return err
	}
}

func (h *Handler) ListDrafts(c echo.Context) error {
	refs, err := h.manager.ListDrafts(c.Request().Context())
	if err != nil {
		return err
	}
	if refs == nil {
		refs = []DraftRef{}
	}
	return c.JSON(http.StatusOK, refs)
}

func (h *Handler) OpenSession(c echo.Context) error {
	var req struct {
		DiseaseID string `json:"disease_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if req.DiseaseID == "" {
		return c.JSON(http.StatusCreated, h.manager.Open(ctx))
	}
	s, err := h.manager.OpenFor(ctx, req.DiseaseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) RestoreSession(c echo.Context) error {
	s, err := h.manager.Restore(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetSession(c echo.Context) error {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DiscardSession(c echo.Context) error {
	if err := h.manager.Discard(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateField(c echo.Context) error {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.UpdateField(req.Field, req.Value)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Submit(c echo.Context) error {
	d, err := h.manager.Submit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SelectSpecies(c echo.Context) error {
	var req struct {
		Name   string `json:"name"`
		Custom bool   `json:"custom"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if req.Custom {
		if _, err := h.species.Register(ctx, req.Name); err != nil && !errors.Is(err, species.ErrDuplicate) {
			return httpError(err)
		}
	}

	var key string
	if _, err := h.manager.Mutate(ctx, c.Param("id"), func(s *Session) error {
		var err error
		key, err = s.SelectSpecies(req.Name)
		return err
	}); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) DeselectSpecies(c echo.Context) error {
	if _, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.DeselectSpecies(c.Param("key"))
	}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateHostField(c echo.Context) error {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.UpdateHostField(c.Param("key"), req.Field, req.Value)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) AddTreatment(c echo.Context) error {
	var req struct {
		Type string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var id string
	if _, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		var err error
		id, err = s.AddTreatment(c.Param("key"), req.Type)
		return err
	}); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"treatment_id": id})
}

func (h *Handler) UpdateTreatment(c echo.Context) error {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.UpdateTreatment(c.Param("key"), c.Param("tid"), req.Field, req.Value)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) RemoveTreatment(c echo.Context) error {
	if _, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.RemoveTreatment(c.Param("key"), c.Param("tid"))
	}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddCustomField(c echo.Context) error {
	var req struct {
		Label string `json:"label"`
	}
	if err := c.Bind(&req); err != nil || req.Label == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "label is required")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.AddCustomField(c.Param("key"), req.Label)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateCustomField(c echo.Context) error {
	var req struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil || req.Label == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "label is required")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.UpdateCustomField(c.Param("key"), req.Label, req.Value)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) RemoveCustomField(c echo.Context) error {
	if _, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.RemoveCustomField(c.Param("key"), c.Param("label"))
	}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AttachImage(c echo.Context) error {
	var req struct {
		URL     string `json:"url"`
		Caption string `json:"caption"`
	}
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	s, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.AttachImage(c.Param("key"), req.URL, req.Caption)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) RemoveImage(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image index")
	}
	if _, err := h.manager.Mutate(c.Request().Context(), c.Param("id"), func(s *Session) error {
		return s.RemoveImage(c.Param("key"), index)
	}); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Research drafts content for one host species and applies it under the
// requested mode. Replace is destructive, so it requires an explicit
// confirmation flag; the drafted content is fetched before any state is
// touched, so a failed call mutates nothing.
func (h *Handler) Research(c echo.Context) error {
	var req struct {
		Mode      string `json:"mode"`
		Confirmed bool   `json:"confirmed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	mode := ApplyMode(req.Mode)
	if mode != ReplaceHostContent && mode != MergeHostContent {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be replace or merge")
	}
	if mode == ReplaceHostContent && !req.Confirmed {
		return echo.NewHTTPError(http.StatusBadRequest, "replace mode requires confirmation")
	}

	ctx := c.Request().Context()

	// Snapshot the prompt inputs under the lock; the AI call itself
	// runs outside it and a failure must leave the session untouched.
	var diseaseName, animalName string
	err := h.manager.View(c.Param("id"), func(s *Session) error {
		host, err := s.host(c.Param("key"))
		if err != nil {
			return err
		}
		diseaseName = s.Name
		animalName = host.Entry.AnimalName
		return nil
	})
	if err != nil {
		return httpError(err)
	}

	result, err := h.researcher.Research(ctx, diseaseName, animalName)
	if err != nil {
		return httpError(err)
	}

	updated, err := h.manager.Mutate(ctx, c.Param("id"), func(s *Session) error {
		return s.ApplyResearch(c.Param("key"), mode, result.Host, result.CausalAgent)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}
