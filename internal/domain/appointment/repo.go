package appointment

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows appointment listings.
type ListFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    Status
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error)

	// EnsureRoomName persists candidate as the appointment's room token unless
	// one is already set, and returns the token now on record. Concurrent
	// joiners therefore always end up in the same room.
	EnsureRoomName(ctx context.Context, id uuid.UUID, candidate string) (string, error)
}
