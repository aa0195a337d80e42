package appointment

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/auth"
	"github.com/laso/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	staff.POST("/appointments", h.Schedule)
	staff.GET("/appointments", h.List)
	staff.POST("/appointments/:id/complete", h.Complete)
	staff.POST("/appointments/:id/cancel", h.Cancel)

	// Participants hit these directly; the service enforces who may join.
	any := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist", "patient"))
	any.GET("/appointments/:id", h.Get)
	any.GET("/appointments/:id/call", h.CheckAvailability)
	any.POST("/appointments/:id/join", h.JoinCall)

	doctor := api.Group("", auth.RequireRole("doctor"))
	doctor.POST("/appointments/:id/telemedicine", h.SetTelemedicine)
}

func (h *Handler) Schedule(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Schedule(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	filter := ListFilter{Status: Status(c.QueryParam("status"))}
	if v := c.QueryParam("patient_id"); v != "" {
		pid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = pid
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		did, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		filter.DoctorID = did
	}

	appts, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) Complete(c echo.Context) error {
	return h.close(c, h.svc.Complete)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.close(c, h.svc.Cancel)
}

func (h *Handler) close(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := fn(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type telemedicineRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) SetTelemedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req telemedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "unknown principal")
	}

	a, err := h.svc.SetTelemedicine(c.Request().Context(), id, actorID, req.Enabled)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "unknown principal")
	}

	access, err := h.svc.CheckAvailability(c.Request().Context(), id, userID)
	if err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, access)
}

func (h *Handler) JoinCall(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "unknown principal")
	}

	access, err := h.svc.JoinCall(c.Request().Context(), id, userID)
	if err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, access)
}
