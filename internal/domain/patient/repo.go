package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)

	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error)
}
