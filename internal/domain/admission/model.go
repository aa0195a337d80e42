package admission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is an admission's lifecycle state. The happy path runs
// admitted -> in_treatment -> pending_discharge -> discharged, forward only;
// transferred, deceased and absconded are side exits from any active state.
type Status string

const (
	StatusAdmitted         Status = "admitted"
	StatusInTreatment      Status = "in_treatment"
	StatusPendingDischarge Status = "pending_discharge"
	StatusDischarged       Status = "discharged"
	StatusTransferred      Status = "transferred"
	StatusDeceased         Status = "deceased"
	StatusAbsconded        Status = "absconded"
)

// statusOrder positions the happy-path states; side exits are not ordered.
var statusOrder = map[Status]int{
	StatusAdmitted:         0,
	StatusInTreatment:      1,
	StatusPendingDischarge: 2,
	StatusDischarged:       3,
}

// IsTerminal reports whether the status permits no further mutation.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDischarged, StatusTransferred, StatusDeceased, StatusAbsconded:
		return true
	}
	return false
}

func (s Status) isSideExit() bool {
	switch s {
	case StatusTransferred, StatusDeceased, StatusAbsconded:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if _, ok := statusOrder[s]; ok {
		return true
	}
	return s.isSideExit()
}

// CanTransition reports whether from -> to is a legal status change. Forward
// moves along the happy path and side exits from active states are allowed;
// nothing leaves a terminal state.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	if to.isSideExit() {
		return true
	}
	fromPos, ok1 := statusOrder[from]
	toPos, ok2 := statusOrder[to]
	return ok1 && ok2 && toPos > fromPos
}

// AdmissionType classifies how the patient arrived.
type AdmissionType string

const (
	TypeEmergency   AdmissionType = "emergency"
	TypeElective    AdmissionType = "elective"
	TypeTransfer    AdmissionType = "transfer"
	TypeMaternity   AdmissionType = "maternity"
	TypeObservation AdmissionType = "observation"
)

// PaymentType records who pays for the stay.
type PaymentType string

const (
	PayInsurance PaymentType = "insurance"
	PaySelf      PaymentType = "self_pay"
	PayGov       PaymentType = "government"
	PayCorporate PaymentType = "corporate"
	PayCharity   PaymentType = "charity"
)

// Admission is one inpatient stay. Never deleted; terminal rows are the
// historical record.
type Admission struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	AdmissionNumber string        `db:"admission_number" json:"admission_number"`
	PatientID       uuid.UUID     `db:"patient_id" json:"patient_id"`
	AdmissionType   AdmissionType `db:"admission_type" json:"admission_type"`
	Status          Status        `db:"status" json:"status"`

	AdmissionDate         time.Time  `db:"admission_date" json:"admission_date"`
	ExpectedDischargeDate *time.Time `db:"expected_discharge_date" json:"expected_discharge_date,omitempty"`
	ActualDischargeDate   *time.Time `db:"actual_discharge_date" json:"actual_discharge_date,omitempty"`

	AdmittingDoctorID  uuid.UUID  `db:"admitting_doctor_id" json:"admitting_doctor_id"`
	AttendingDoctorID  *uuid.UUID `db:"attending_doctor_id" json:"attending_doctor_id,omitempty"`
	AdmissionDiagnosis string     `db:"admission_diagnosis" json:"admission_diagnosis"`
	ChiefComplaint     string     `db:"chief_complaint" json:"chief_complaint,omitempty"`

	BedID *uuid.UUID `db:"bed_id" json:"bed_id,omitempty"`

	EmergencyContactName         string `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship string `db:"emergency_contact_relationship" json:"emergency_contact_relationship,omitempty"`

	PaymentType           PaymentType `db:"payment_type" json:"payment_type"`
	InsurancePolicyNumber string      `db:"insurance_policy_number" json:"insurance_policy_number,omitempty"`

	DischargeDiagnosis    string     `db:"discharge_diagnosis" json:"discharge_diagnosis,omitempty"`
	DischargeSummary      string     `db:"discharge_summary" json:"discharge_summary,omitempty"`
	DischargeInstructions string     `db:"discharge_instructions" json:"discharge_instructions,omitempty"`
	FollowUpInstructions  string     `db:"follow_up_instructions" json:"follow_up_instructions,omitempty"`
	DischargedByID        *uuid.UUID `db:"discharged_by_id" json:"discharged_by_id,omitempty"`

	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the stay is ongoing.
func (a *Admission) IsActive() bool {
	switch a.Status {
	case StatusAdmitted, StatusInTreatment, StatusPendingDischarge:
		return true
	}
	return false
}

// LengthOfStay returns whole days between admission and discharge, or now for
// an ongoing stay. Never negative.
func (a *Admission) LengthOfStay(now time.Time) int {
	end := now
	if a.ActualDischargeDate != nil {
		end = *a.ActualDischargeDate
	}
	days := int(end.Sub(a.AdmissionDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// FormatNumber renders the admission number for the seq-th admission of the
// given day, e.g. ADM-20240501-0001.
func FormatNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ADM-%s-%04d", day.Format("20060102"), seq)
}

// TransferReason classifies a bed move.
type TransferReason string

const (
	ReasonBedTransfer      TransferReason = "bed_transfer"
	ReasonWardTransfer     TransferReason = "ward_transfer"
	ReasonICUUpgrade       TransferReason = "icu_upgrade"
	ReasonICUDowngrade     TransferReason = "icu_downgrade"
	ReasonFacilityTransfer TransferReason = "facility_transfer"
	ReasonPatientRequest   TransferReason = "patient_request"
	ReasonMedicalNecessity TransferReason = "medical_necessity"
)

var validTransferReasons = map[TransferReason]bool{
	ReasonBedTransfer: true, ReasonWardTransfer: true, ReasonICUUpgrade: true,
	ReasonICUDowngrade: true, ReasonFacilityTransfer: true,
	ReasonPatientRequest: true, ReasonMedicalNecessity: true,
}

// TransferRecord is one immutable ledger entry for a bed move. FromBedID is
// nil for the stay's first bed assignment.
type TransferRecord struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	AdmissionID   uuid.UUID      `db:"admission_id" json:"admission_id"`
	FromBedID     *uuid.UUID     `db:"from_bed_id" json:"from_bed_id,omitempty"`
	ToBedID       uuid.UUID      `db:"to_bed_id" json:"to_bed_id"`
	Reason        TransferReason `db:"transfer_reason" json:"transfer_reason"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	TransferredBy *uuid.UUID     `db:"transferred_by" json:"transferred_by,omitempty"`
	TransferredAt time.Time      `db:"transferred_at" json:"transferred_at"`
}
