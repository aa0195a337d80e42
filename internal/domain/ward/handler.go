package ward

import (
	"errors"
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
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	read.GET("/wards", h.ListWards)
	read.GET("/wards/:id", h.GetWard)
	read.GET("/wards/:id/occupancy", h.GetWardOccupancy)
	read.GET("/wards/:id/rooms", h.ListRooms)
	read.GET("/wards/:id/beds", h.ListWardBeds)
	read.GET("/rooms/:id", h.GetRoom)
	read.GET("/rooms/:id/availability", h.GetRoomAvailability)
	read.GET("/rooms/:id/beds", h.ListRoomBeds)
	read.GET("/beds/:id", h.GetBed)

	// Facility setup is an admin concern.
	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/wards", h.CreateWard)
	admin.PUT("/wards/:id", h.UpdateWard)
	admin.POST("/rooms", h.CreateRoom)
	admin.POST("/beds", h.CreateBed)

	// Bed transitions are ward-floor operations.
	ops := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	ops.POST("/beds/:id/occupy", h.OccupyBed)
	ops.POST("/beds/:id/release", h.ReleaseBed)
	ops.POST("/beds/:id/mark-cleaned", h.MarkBedCleaned)
	ops.POST("/beds/:id/reserve", h.ReserveBed)
	ops.POST("/beds/:id/cancel-reservation", h.CancelReservation)
	ops.POST("/beds/:id/maintenance/start", h.StartMaintenance)
	ops.POST("/beds/:id/maintenance/end", h.EndMaintenance)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var w Ward
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = id
	if err := h.svc.UpdateWard(c.Request().Context(), &w); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListWards(c echo.Context) error {
	pg := pagination.FromContext(c)
	wards, total, err := h.svc.ListWards(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(wards, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetWardOccupancy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	occ, err := h.svc.WardOccupancy(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, occ)
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var room Room
	if err := c.Bind(&room); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRoom(c.Request().Context(), &room); err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	room, err := h.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) ListRooms(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rooms, err := h.svc.ListRoomsByWard(c.Request().Context(), wardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) GetRoomAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	avail, err := h.svc.RoomAvailability(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var b Bed
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBed(c.Request().Context(), &b); err != nil {
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListRoomBeds(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	beds, err := h.svc.ListBedsByRoom(c.Request().Context(), roomID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) ListWardBeds(c echo.Context) error {
	wardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	beds, err := h.svc.ListBedsByWard(c.Request().Context(), wardID, BedStatus(c.QueryParam("status")))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, beds)
}

type occupyRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) OccupyBed(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		var req occupyRequest
		if err := ctx.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return h.svc.OccupyBed(ctx.Request().Context(), bedID, req.PatientID)
	})
}

func (h *Handler) ReleaseBed(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		return h.svc.ReleaseBed(ctx.Request().Context(), bedID)
	})
}

func (h *Handler) MarkBedCleaned(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		return h.svc.MarkBedCleaned(ctx.Request().Context(), bedID)
	})
}

func (h *Handler) ReserveBed(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		var req occupyRequest
		if err := ctx.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return h.svc.ReserveBed(ctx.Request().Context(), bedID, req.PatientID)
	})
}

func (h *Handler) CancelReservation(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		return h.svc.CancelReservation(ctx.Request().Context(), bedID)
	})
}

func (h *Handler) StartMaintenance(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		return h.svc.StartBedMaintenance(ctx.Request().Context(), bedID)
	})
}

func (h *Handler) EndMaintenance(c echo.Context) error {
	return h.transition(c, func(ctx echo.Context, bedID uuid.UUID) (*Bed, error) {
		return h.svc.EndBedMaintenance(ctx.Request().Context(), bedID)
	})
}

func (h *Handler) transition(c echo.Context, fn func(echo.Context, uuid.UUID) (*Bed, error)) error {
	bedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bed, err := fn(c, bedID)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		if status := apperr.HTTPStatus(err); status != http.StatusInternalServerError {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, bed)
}
