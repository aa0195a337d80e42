package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/laso/hms/internal/platform/auth"
	"github.com/laso/hms/internal/platform/events"
)

// vitalsReading is a single monitoring sample posted by a bedside device or
// the nursing station.
type vitalsReading struct {
	PatientID   uuid.UUID `json:"patient_id"`
	HeartRate   int       `json:"heart_rate,omitempty"`
	SystolicBP  int       `json:"systolic_bp,omitempty"`
	DiastolicBP int       `json:"diastolic_bp,omitempty"`
	SpO2        float64   `json:"spo2,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	RecordedAt  time.Time `json:"recorded_at,omitempty"`
}

// vitalsHandler accepts readings and fans them out to dashboard subscribers.
// Readings are transient; persistence belongs to the flowsheet system, not
// the live feed.
type vitalsHandler struct {
	bus events.Publisher
}

func newVitalsHandler(bus events.Publisher) *vitalsHandler {
	return &vitalsHandler{bus: bus}
}

func (h *vitalsHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	g.POST("/vitals", h.Ingest)
}

func (h *vitalsHandler) Ingest(c echo.Context) error {
	var r vitalsReading
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if r.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}

	h.bus.Publish(c.Request().Context(), events.Event{
		Resource:  "vitals",
		ID:        uuid.New().String(),
		PatientID: r.PatientID.String(),
		Status:    fmt.Sprintf("hr=%d bp=%d/%d spo2=%.1f temp=%.1f", r.HeartRate, r.SystolicBP, r.DiastolicBP, r.SpO2, r.Temperature),
		Timestamp: r.RecordedAt,
	})

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}
