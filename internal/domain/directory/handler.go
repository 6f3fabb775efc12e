package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/terminplan/terminplan/internal/platform/auth"
	"github.com/terminplan/terminplan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	read.GET("/practitioners", h.ListPractitioners)
	read.GET("/practitioners/:id", h.GetPractitioner)
	read.GET("/locations", h.ListLocations)
	read.GET("/locations/:id", h.GetLocation)
	read.GET("/appointment-types", h.ListAppointmentTypes)
	read.GET("/appointment-types/:id", h.GetAppointmentType)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/practitioners", h.CreatePractitioner)
	write.PUT("/practitioners/:id", h.UpdatePractitioner)
	write.DELETE("/practitioners/:id", h.DeletePractitioner)
	write.POST("/locations", h.CreateLocation)
	write.PUT("/locations/:id", h.UpdateLocation)
	write.DELETE("/locations/:id", h.DeleteLocation)
	write.POST("/appointment-types", h.CreateAppointmentType)
	write.PUT("/appointment-types/:id", h.UpdateAppointmentType)
	write.DELETE("/appointment-types/:id", h.DeleteAppointmentType)
}

func directoryError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// -- Practitioner Handlers --

func (h *Handler) CreatePractitioner(c echo.Context) error {
	var p Practitioner
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePractitioner(c.Request().Context(), &p); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPractitioner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPractitioner(c.Request().Context(), id)
	if err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPractitioners(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPractitioners(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Path()))
}

func (h *Handler) UpdatePractitioner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Practitioner
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePractitioner(c.Request().Context(), &p); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePractitioner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePractitioner(c.Request().Context(), id); err != nil {
		return directoryError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Location Handlers --

func (h *Handler) CreateLocation(c echo.Context) error {
	var l Location
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLocation(c.Request().Context(), &l); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLocation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLocation(c.Request().Context(), id)
	if err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLocations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLocations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Path()))
}

func (h *Handler) UpdateLocation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l Location
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdateLocation(c.Request().Context(), &l); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLocation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteLocation(c.Request().Context(), id); err != nil {
		return directoryError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- AppointmentType Handlers --

func (h *Handler) CreateAppointmentType(c echo.Context) error {
	var at AppointmentType
	if err := c.Bind(&at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAppointmentType(c.Request().Context(), &at); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusCreated, at)
}

func (h *Handler) GetAppointmentType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	at, err := h.svc.GetAppointmentType(c.Request().Context(), id)
	if err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, at)
}

func (h *Handler) ListAppointmentTypes(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointmentTypes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Path()))
}

func (h *Handler) UpdateAppointmentType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var at AppointmentType
	if err := c.Bind(&at); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	at.ID = id
	if err := h.svc.UpdateAppointmentType(c.Request().Context(), &at); err != nil {
		return directoryError(err)
	}
	return c.JSON(http.StatusOK, at)
}

func (h *Handler) DeleteAppointmentType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointmentType(c.Request().Context(), id); err != nil {
		return directoryError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
