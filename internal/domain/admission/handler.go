package admission

import (
	"net/http"
	"time"

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
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	read.GET("/admissions", h.List)
	read.GET("/admissions/:id", h.Get)
	read.GET("/admissions/number/:number", h.GetByNumber)
	read.GET("/admissions/:id/transfers", h.ListTransfers)

	write := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	write.POST("/admissions", h.Admit)
	write.POST("/admissions/:id/transfer", h.Transfer)
	write.PATCH("/admissions/:id/status", h.UpdateStatus)

	// Discharge carries clinical sign-off.
	discharge := api.Group("", auth.RequireRole("admin", "doctor"))
	discharge.POST("/admissions/:id/discharge", h.Discharge)
}

func (h *Handler) Admit(c echo.Context) error {
	var a Admission
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Admit(c.Request().Context(), &a); err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, &a)
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
	return c.JSON(http.StatusOK, admissionView(a))
}

func (h *Handler) GetByNumber(c echo.Context) error {
	a, err := h.svc.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, admissionView(a))
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

	admissions, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}

type transferRequest struct {
	BedID  uuid.UUID      `json:"bed_id"`
	Reason TransferReason `json:"transfer_reason"`
	Notes  string         `json:"notes"`
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.BedID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bed_id is required")
	}

	var actor *uuid.UUID
	if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		actor = &uid
	}

	a, err := h.svc.TransferBed(c.Request().Context(), id, req.BedID, req.Reason, req.Notes, actor)
	if err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, admissionView(a))
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req DischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DischargedBy == uuid.Nil {
		if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			req.DischargedBy = uid
		}
	}

	a, err := h.svc.Discharge(c.Request().Context(), id, req)
	if err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, admissionView(a))
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, admissionView(a))
}

func (h *Handler) ListTransfers(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	transfers, err := h.svc.ListTransfers(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, transfers)
}

// admissionView decorates an admission with its derived fields for responses.
type viewModel struct {
	*Admission
	LengthOfStayDays int  `json:"length_of_stay_days"`
	Active           bool `json:"is_active"`
}

func admissionView(a *Admission) viewModel {
	return viewModel{
		Admission:        a,
		LengthOfStayDays: a.LengthOfStay(time.Now().UTC()),
		Active:           a.IsActive(),
	}
}
