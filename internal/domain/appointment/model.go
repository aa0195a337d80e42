package appointment

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Status is an appointment's scheduling state.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a scheduled consultation between one patient and one doctor.
// Telemedicine appointments additionally carry an opaque video-room token,
// generated lazily on the first successful join.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	Description    string    `db:"description" json:"description,omitempty"`
	Status         Status    `db:"status" json:"status"`
	IsTelemedicine bool      `db:"is_telemedicine" json:"is_telemedicine"`
	RoomName       string    `db:"room_name" json:"room_name,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CanJoin reports whether user is one of the two designated participants.
// Window state never overrides this check.
func (a *Appointment) CanJoin(userID uuid.UUID) bool {
	return userID != uuid.Nil && (userID == a.DoctorID || userID == a.PatientID)
}

// NewRoomName returns a random, privacy-preserving video room token.
func NewRoomName() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "telemed_" + hex.EncodeToString(buf), nil
}
