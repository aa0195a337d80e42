package clinical

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *SOAPNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*SOAPNote, error)
	Update(ctx context.Context, n *SOAPNote) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SOAPNote, int, error)
	ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*SOAPNote, error)
}
