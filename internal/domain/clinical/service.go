package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/domain/admission"
	"github.com/laso/hms/internal/platform/apperr"
)

// AdmissionDirectory resolves admission references. Terminal admissions are
// still valid targets: attaching documentation is additive, never a mutation
// of the stay itself.
type AdmissionDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*admission.Admission, error)
}

var validEncounterTypes = map[EncounterType]bool{
	EncounterInitial: true, EncounterFollowUp: true, EncounterUrgent: true,
	EncounterEmergency: true, EncounterConsultation: true, EncounterTelemedicine: true,
	EncounterInpatientRound: true, EncounterDischarge: true,
}

type Service struct {
	repo       Repository
	admissions AdmissionDirectory
	now        func() time.Time
}

func NewService(repo Repository, admissions AdmissionDirectory) *Service {
	return &Service{
		repo:       repo,
		admissions: admissions,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateNote(ctx context.Context, n *SOAPNote) error {
	if n.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if n.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if n.ChiefComplaint == "" {
		return fmt.Errorf("chief_complaint is required")
	}
	if n.EncounterType == "" {
		n.EncounterType = EncounterFollowUp
	}
	if !validEncounterTypes[n.EncounterType] {
		return fmt.Errorf("invalid encounter_type: %s", n.EncounterType)
	}

	if n.AdmissionID != nil {
		adm, err := s.admissions.Get(ctx, *n.AdmissionID)
		if err != nil {
			return err
		}
		if adm.PatientID != n.PatientID {
			return fmt.Errorf("admission belongs to a different patient")
		}
	}

	n.Status = NoteDraft
	if n.EncounterDate.IsZero() {
		n.EncounterDate = s.now()
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*SOAPNote, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateNote replaces the note body. Locked notes only change through Amend.
func (s *Service) UpdateNote(ctx context.Context, n *SOAPNote) error {
	current, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return err
	}
	if current.IsLocked() {
		return apperr.Wrap(apperr.ErrInvalidTransition, "note is signed and locked")
	}
	n.Status = current.Status
	n.SignedAt = current.SignedAt
	n.AmendmentNotes = current.AmendmentNotes
	return s.repo.Update(ctx, n)
}

// Complete marks a draft ready for sign-off.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*SOAPNote, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != NoteDraft {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "note is %s", n.Status)
	}
	n.Status = NoteCompleted
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Sign locks the note. Only the authoring provider may sign.
func (s *Service) Sign(ctx context.Context, id, providerID uuid.UUID) (*SOAPNote, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ProviderID != providerID {
		return nil, apperr.Wrap(apperr.ErrNotAuthorized, "only the authoring provider can sign")
	}
	if n.IsLocked() {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "note already signed")
	}
	now := s.now()
	n.Status = NoteSigned
	n.SignedAt = &now
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Amend appends a timestamped addendum to a signed note. The original body is
// untouched.
func (s *Service) Amend(ctx context.Context, id, providerID uuid.UUID, text string) (*SOAPNote, error) {
	if text == "" {
		return nil, fmt.Errorf("amendment text is required")
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ProviderID != providerID {
		return nil, apperr.Wrap(apperr.ErrNotAuthorized, "only the authoring provider can amend")
	}
	if !n.IsLocked() {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "only signed notes can be amended")
	}

	stamp := s.now().Format("2006-01-02 15:04")
	entry := fmt.Sprintf("[Amendment %s]\n%s", stamp, text)
	if n.AmendmentNotes == "" {
		n.AmendmentNotes = entry
	} else {
		n.AmendmentNotes += "\n\n" + entry
	}
	n.Status = NoteAmended
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SOAPNote, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*SOAPNote, error) {
	if _, err := s.admissions.Get(ctx, admissionID); err != nil {
		return nil, err
	}
	return s.repo.ListByAdmission(ctx, admissionID)
}
