package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows admission listings.
type ListFilter struct {
	Status    Status
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

type Repository interface {
	// InTx runs fn in one transaction. Nested calls join the ambient
	// transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// NextSequence returns the next 1-based admission sequence for the given
	// calendar day. Safe under concurrent admits: two callers on the same day
	// never see the same value.
	NextSequence(ctx context.Context, day time.Time) (int, error)

	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	GetByNumber(ctx context.Context, number string) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error)

	// Transfer ledger: append-only, newest first.
	AddTransfer(ctx context.Context, t *TransferRecord) error
	ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*TransferRecord, error)
}
