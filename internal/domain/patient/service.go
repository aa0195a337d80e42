package patient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// newMRN returns a random medical record number, e.g. MRN-4F2A91C3.
func newMRN() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "MRN-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("name is required")
	}
	if p.Gender != "" && p.Gender != GenderMale && p.Gender != GenderFemale && p.Gender != GenderOther {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.MRN == "" {
		mrn, err := newMRN()
		if err != nil {
			return fmt.Errorf("generate mrn: %w", err)
		}
		p.MRN = mrn
	}
	p.IsActive = true
	return s.repo.CreatePatient(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetPatientByMRN(ctx, mrn)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	return s.repo.UpdatePatient(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.ListPatients(ctx, search, limit, offset)
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.FirstName == "" && d.LastName == "" {
		return fmt.Errorf("name is required")
	}
	d.IsActive = true
	return s.repo.CreateDoctor(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	return s.repo.UpdateDoctor(ctx, d)
}

func (s *Service) ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.ListDoctors(ctx, specialization, limit, offset)
}
