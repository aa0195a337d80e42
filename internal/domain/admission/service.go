package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/domain/ward"
	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/events"
)

// BedAllocator is the slice of the ward service the ADT workflow drives. Bed
// transitions run on the ambient transaction context, so calls made inside
// Repository.InTx are atomic with the admission writes.
type BedAllocator interface {
	OccupyBed(ctx context.Context, bedID, patientID uuid.UUID) (*ward.Bed, error)
	ReleaseBed(ctx context.Context, bedID uuid.UUID) (*ward.Bed, error)
}

var validAdmissionTypes = map[AdmissionType]bool{
	TypeEmergency: true, TypeElective: true, TypeTransfer: true,
	TypeMaternity: true, TypeObservation: true,
}

var validPaymentTypes = map[PaymentType]bool{
	PayInsurance: true, PaySelf: true, PayGov: true,
	PayCorporate: true, PayCharity: true,
}

type Service struct {
	repo Repository
	beds BedAllocator
	bus  events.Publisher
	now  func() time.Time
}

func NewService(repo Repository, beds BedAllocator, bus events.Publisher) *Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Service{repo: repo, beds: beds, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

// Admit opens a stay. The admission number, the admission row and the optional
// bed occupation commit as one unit: a failed bed grab persists nothing.
func (s *Service) Admit(ctx context.Context, a *Admission) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.AdmittingDoctorID == uuid.Nil {
		return fmt.Errorf("admitting_doctor_id is required")
	}
	if a.AdmissionDiagnosis == "" {
		return fmt.Errorf("admission_diagnosis is required")
	}
	if a.AdmissionType == "" {
		a.AdmissionType = TypeElective
	}
	if !validAdmissionTypes[a.AdmissionType] {
		return fmt.Errorf("invalid admission_type: %s", a.AdmissionType)
	}
	if a.PaymentType == "" {
		a.PaymentType = PaySelf
	}
	if !validPaymentTypes[a.PaymentType] {
		return fmt.Errorf("invalid payment_type: %s", a.PaymentType)
	}

	now := s.now()
	a.Status = StatusAdmitted
	if a.AdmissionDate.IsZero() {
		a.AdmissionDate = now
	}

	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		seq, err := s.repo.NextSequence(ctx, now)
		if err != nil {
			return err
		}
		a.AdmissionNumber = FormatNumber(now, seq)

		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		if a.BedID != nil {
			if _, err := s.beds.OccupyBed(ctx, *a.BedID, a.PatientID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, a)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Admission, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status: %s", filter.Status)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// TransferBed moves an active admission to a new bed. The new bed is occupied
// first, then the old one released into cleaning; the rebound admission and
// exactly one ledger entry commit with the bed updates.
func (s *Service) TransferBed(ctx context.Context, admissionID, newBedID uuid.UUID, reason TransferReason, notes string, actorID *uuid.UUID) (*Admission, error) {
	if reason == "" {
		reason = ReasonBedTransfer
	}
	if !validTransferReasons[reason] {
		return nil, fmt.Errorf("invalid transfer_reason: %s", reason)
	}

	var a *Admission
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if !a.IsActive() {
			return apperr.Wrap(apperr.ErrInvalidTransition,
				"admission %s is %s", a.AdmissionNumber, a.Status)
		}

		fromBed := a.BedID
		if _, err := s.beds.OccupyBed(ctx, newBedID, a.PatientID); err != nil {
			return err
		}
		if fromBed != nil {
			if _, err := s.beds.ReleaseBed(ctx, *fromBed); err != nil {
				return err
			}
		}

		a.BedID = &newBedID
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		return s.repo.AddTransfer(ctx, &TransferRecord{
			AdmissionID:   a.ID,
			FromBedID:     fromBed,
			ToBedID:       newBedID,
			Reason:        reason,
			Notes:         notes,
			TransferredBy: actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DischargeRequest carries the discharge paperwork.
type DischargeRequest struct {
	DischargedBy         uuid.UUID `json:"discharged_by"`
	Diagnosis            string    `json:"discharge_diagnosis"`
	Summary              string    `json:"discharge_summary"`
	Instructions         string    `json:"discharge_instructions"`
	FollowUpInstructions string    `json:"follow_up_instructions"`
}

// Discharge closes an active stay: stamps the discharge time, records the
// paperwork and releases the bound bed into cleaning, all in one transaction.
func (s *Service) Discharge(ctx context.Context, admissionID uuid.UUID, req DischargeRequest) (*Admission, error) {
	var a *Admission
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if !a.IsActive() {
			return apperr.Wrap(apperr.ErrInvalidTransition,
				"admission %s is %s", a.AdmissionNumber, a.Status)
		}

		now := s.now()
		a.Status = StatusDischarged
		a.ActualDischargeDate = &now
		a.DischargedByID = &req.DischargedBy
		a.DischargeDiagnosis = req.Diagnosis
		a.DischargeSummary = req.Summary
		a.DischargeInstructions = req.Instructions
		a.FollowUpInstructions = req.FollowUpInstructions

		if a.BedID != nil {
			if _, err := s.beds.ReleaseBed(ctx, *a.BedID); err != nil {
				return err
			}
			a.BedID = nil
		}
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, a)
	return a, nil
}

// UpdateStatus advances an active admission along the happy path or takes a
// side exit. Side exits release the bound bed like a discharge does;
// "discharged" itself is only reachable through Discharge, which collects the
// paperwork.
func (s *Service) UpdateStatus(ctx context.Context, admissionID uuid.UUID, newStatus Status) (*Admission, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("invalid status: %s", newStatus)
	}
	if newStatus == StatusDischarged {
		return nil, fmt.Errorf("use the discharge operation to discharge")
	}

	var a *Admission
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if !CanTransition(a.Status, newStatus) {
			return apperr.Wrap(apperr.ErrInvalidTransition,
				"admission %s cannot move from %s to %s", a.AdmissionNumber, a.Status, newStatus)
		}

		a.Status = newStatus
		if newStatus.isSideExit() {
			now := s.now()
			a.ActualDischargeDate = &now
			if a.BedID != nil {
				if _, err := s.beds.ReleaseBed(ctx, *a.BedID); err != nil {
					return err
				}
				a.BedID = nil
			}
		}
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, a)
	return a, nil
}

// ListTransfers returns the admission's ledger, newest first.
func (s *Service) ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*TransferRecord, error) {
	if _, err := s.repo.GetByID(ctx, admissionID); err != nil {
		return nil, err
	}
	return s.repo.ListTransfers(ctx, admissionID)
}

func (s *Service) publish(ctx context.Context, a *Admission) {
	s.bus.Publish(ctx, events.Event{
		Resource:  "admission",
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		Status:    string(a.Status),
	})
}
