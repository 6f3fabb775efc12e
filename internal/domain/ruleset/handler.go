package ruleset

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/terminplan/terminplan/internal/platform/auth"
	"github.com/terminplan/terminplan/internal/platform/db"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	read.GET("/rule-sets/:id", h.GetRuleSet)
	read.GET("/rule-sets/active", h.GetActive)
	read.GET("/versions", h.History)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/rule-sets/draft", h.GetOrCreateDraft)
	write.POST("/rule-sets/:id/save", h.Save)
	write.POST("/rule-sets/:id/activate", h.Activate)
	write.DELETE("/rule-sets/:id", h.Discard)
}

func (h *Handler) GetRuleSet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rs, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "rule set not found")
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *Handler) GetActive(c echo.Context) error {
	ctx := c.Request().Context()
	rs, err := h.store.GetActive(ctx, db.PracticeFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active rule set")
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	nodes, err := h.store.History(ctx, db.PracticeFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, nodes)
}

type draftRequest struct {
	BaseRuleSetID uuid.UUID `json:"base_rule_set_id"`
}

func (h *Handler) GetOrCreateDraft(c echo.Context) error {
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.BaseRuleSetID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "base_rule_set_id is required")
	}
	ctx := c.Request().Context()
	draft, err := h.store.GetOrCreateDraft(ctx, db.PracticeFromContext(ctx), req.BaseRuleSetID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, draft)
}

type saveRequest struct {
	Description string `json:"description"`
	Activate    bool   `json:"activate"`
}

func (h *Handler) Save(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.store.Save(c.Request().Context(), id, req.Description, req.Activate); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Activate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.store.Activate(c.Request().Context(), id); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Discard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.store.Discard(c.Request().Context(), id); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
