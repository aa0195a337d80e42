package clinical

import (
	"time"

	"github.com/google/uuid"
)

// NoteStatus tracks a SOAP note through its documentation lifecycle. Signed
// notes are locked; amendments append, they never rewrite.
type NoteStatus string

const (
	NoteDraft     NoteStatus = "draft"
	NoteCompleted NoteStatus = "completed"
	NoteSigned    NoteStatus = "signed"
	NoteAmended   NoteStatus = "amended"
)

// EncounterType classifies the visit being documented.
type EncounterType string

const (
	EncounterInitial        EncounterType = "initial"
	EncounterFollowUp       EncounterType = "follow_up"
	EncounterUrgent         EncounterType = "urgent"
	EncounterEmergency      EncounterType = "emergency"
	EncounterConsultation   EncounterType = "consultation"
	EncounterTelemedicine   EncounterType = "telemedicine"
	EncounterInpatientRound EncounterType = "inpatient_round"
	EncounterDischarge      EncounterType = "discharge"
)

// SOAPNote is a structured clinical note. It may reference an admission or an
// appointment; attaching notes stays legal after the admission closed, because
// documentation is purely additive.
type SOAPNote struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID    uuid.UUID  `db:"provider_id" json:"provider_id"`
	AdmissionID   *uuid.UUID `db:"admission_id" json:"admission_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`

	EncounterDate time.Time     `db:"encounter_date" json:"encounter_date"`
	EncounterType EncounterType `db:"encounter_type" json:"encounter_type"`
	Status        NoteStatus    `db:"status" json:"status"`

	// Subjective
	ChiefComplaint          string `db:"chief_complaint" json:"chief_complaint"`
	HistoryOfPresentIllness string `db:"history_of_present_illness" json:"history_of_present_illness,omitempty"`

	// Objective
	VitalSignsSummary   string `db:"vital_signs_summary" json:"vital_signs_summary,omitempty"`
	PhysicalExamination string `db:"physical_examination" json:"physical_examination,omitempty"`
	LabResults          string `db:"lab_results" json:"lab_results,omitempty"`

	// Assessment
	PrimaryDiagnosis      string `db:"primary_diagnosis" json:"primary_diagnosis,omitempty"`
	PrimaryDiagnosisICD10 string `db:"primary_diagnosis_icd10" json:"primary_diagnosis_icd10,omitempty"`
	ClinicalImpression    string `db:"clinical_impression" json:"clinical_impression,omitempty"`

	// Plan
	TreatmentPlan         string `db:"treatment_plan" json:"treatment_plan,omitempty"`
	MedicationsPrescribed string `db:"medications_prescribed" json:"medications_prescribed,omitempty"`
	FollowUpInstructions  string `db:"follow_up_instructions" json:"follow_up_instructions,omitempty"`

	SignedAt       *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	AmendmentNotes string     `db:"amendment_notes" json:"amendment_notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsLocked reports whether the note body can no longer be edited.
func (n *SOAPNote) IsLocked() bool {
	return n.Status == NoteSigned || n.Status == NoteAmended
}
