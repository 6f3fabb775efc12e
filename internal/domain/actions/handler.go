package actions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terminplan/terminplan/internal/platform/auth"
	"github.com/terminplan/terminplan/internal/platform/db"
	"github.com/terminplan/terminplan/internal/platform/telemetry"
	"github.com/terminplan/terminplan/pkg/actionlog"
)

// SessionHeader carries the client's editing-session identifier. Undo and
// redo act on the history of the session that issued them.
const SessionHeader = "X-Session-ID"

type Handler struct {
	dispatcher *Dispatcher
	sessions   *SessionRegistry
	tp         *telemetry.TelemetryProvider
}

func NewHandler(dispatcher *Dispatcher, sessions *SessionRegistry, tp *telemetry.TelemetryProvider) *Handler {
	return &Handler{dispatcher: dispatcher, sessions: sessions, tp: tp}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/actions", h.Dispatch)
	write.POST("/actions/undo", h.Undo)
	write.POST("/actions/redo", h.Redo)
	write.GET("/actions/state", h.State)
}

func (h *Handler) history(c echo.Context) *actionlog.History {
	sessionID := c.Request().Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = "default"
	}
	practiceID := db.PracticeFromContext(c.Request().Context())
	return h.sessions.Get(practiceID, sessionID)
}

func resultResponse(c echo.Context, res actionlog.Result) error {
	status := http.StatusOK
	if res.Status == actionlog.StatusConflict {
		status = http.StatusConflict
	}
	return c.JSON(status, res)
}

func (h *Handler) Dispatch(c echo.Context) error {
	var cmd Command
	if err := c.Bind(&cmd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	action, err := h.dispatcher.Prepare(ctx, db.PracticeFromContext(ctx), cmd)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res := h.history(c).Do(ctx, action)
	if h.tp != nil {
		h.tp.RuleOperationCounter("action", string(cmd.Kind))
	}
	return resultResponse(c, res)
}

func (h *Handler) Undo(c echo.Context) error {
	res := h.history(c).Undo(c.Request().Context())
	if h.tp != nil {
		h.tp.RuleOperationCounter("action", "undo")
	}
	return resultResponse(c, res)
}

func (h *Handler) Redo(c echo.Context) error {
	res := h.history(c).Redo(c.Request().Context())
	if h.tp != nil {
		h.tp.RuleOperationCounter("action", "redo")
	}
	return resultResponse(c, res)
}

func (h *Handler) State(c echo.Context) error {
	hist := h.history(c)
	undo, redo := hist.Depth()
	return c.JSON(http.StatusOK, State{
		CanUndo:   hist.CanUndo(),
		CanRedo:   hist.CanRedo(),
		UndoDepth: undo,
		RedoDepth: redo,
		Running:   hist.IsRunning(),
	})
}
