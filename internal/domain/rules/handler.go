package rules

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/terminplan/terminplan/internal/platform/auth"
)

// ErrNotDraft is the contract error of DraftGuard: the targeted rule set is
// not the practice's current unsaved draft.
var ErrNotDraft = errors.New("rule set is not the current draft")

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	read.GET("/rules/:id", h.GetRule)
	read.GET("/rule-sets/:id/rules", h.ListRules)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/rule-sets/:id/rules", h.CreateRule)
	write.PUT("/rule-sets/:id/rules/:ruleId", h.UpdateRule)
	write.DELETE("/rule-sets/:id/rules/:ruleId", h.DeleteRule)
}

func (h *Handler) GetRule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetRule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "rule not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRules(c echo.Context) error {
	ruleSetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule set id")
	}
	items, err := h.svc.ListByRuleSet(c.Request().Context(), ruleSetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateRule(c echo.Context) error {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule set id")
	}
	var r Rule
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRule(c.Request().Context(), draftID, &r); err != nil {
		return ruleError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateRule(c echo.Context) error {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule set id")
	}
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}
	var r Rule
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = ruleID
	updated, err := h.svc.UpdateRule(c.Request().Context(), draftID, &r)
	if err != nil {
		return ruleError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteRule(c echo.Context) error {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule set id")
	}
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}
	if err := h.svc.DeleteRule(c.Request().Context(), draftID, ruleID); err != nil {
		return ruleError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func ruleError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotDraft):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
