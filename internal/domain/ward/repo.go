package ward

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Wards
	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	UpdateWard(ctx context.Context, w *Ward) error
	ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error)

	// Rooms
	CreateRoom(ctx context.Context, r *Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRoomsByWard(ctx context.Context, wardID uuid.UUID) ([]*Room, error)
	CountActiveBedsInRoom(ctx context.Context, roomID uuid.UUID) (int, error)

	// Beds
	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	ListBedsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Bed, error)
	ListBedsByWard(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error)
	CountBedsByStatus(ctx context.Context, wardID uuid.UUID) (map[BedStatus]int, error)

	// TransitionBed atomically moves a bed from any of the from states to the
	// to state, updating the current patient pointer. It returns
	// apperr.ErrNotFound when the bed does not exist,
	// apperr.ErrInactiveResource when it is decommissioned, and
	// apperr.ErrInvalidTransition when the bed exists but is not in an
	// accepted from state (including losing a concurrent race for the bed).
	TransitionBed(ctx context.Context, id uuid.UUID, from []BedStatus, to BedStatus, patientID *uuid.UUID) (*Bed, error)
}
