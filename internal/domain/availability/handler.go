package availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/terminplan/terminplan/internal/domain/ruleset"
	"github.com/terminplan/terminplan/internal/platform/auth"
	"github.com/terminplan/terminplan/internal/platform/db"
	"github.com/terminplan/terminplan/internal/platform/telemetry"
)

type Handler struct {
	svc *Service
	tp  *telemetry.TelemetryProvider
}

func NewHandler(svc *Service, tp *telemetry.TelemetryProvider) *Handler {
	return &Handler{svc: svc, tp: tp}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	read.POST("/availability/evaluate", h.Evaluate)
}

func (h *Handler) Evaluate(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EvaluationDate.IsZero() {
		req.EvaluationDate = time.Now().UTC()
	}

	ctx := c.Request().Context()
	result, err := h.svc.EvaluateSlot(ctx, db.PracticeFromContext(ctx), req)
	if err != nil {
		if errors.Is(err, ruleset.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no rule set to evaluate against")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.tp != nil {
		h.tp.EvaluationCounter(string(result.Status))
	}
	return c.JSON(http.StatusOK, result)
}
