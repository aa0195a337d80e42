package clinical

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const noteCols = `id, patient_id, provider_id, admission_id, appointment_id,
	encounter_date, encounter_type, status,
	chief_complaint, history_of_present_illness,
	vital_signs_summary, physical_examination, lab_results,
	primary_diagnosis, primary_diagnosis_icd10, clinical_impression,
	treatment_plan, medications_prescribed, follow_up_instructions,
	signed_at, amendment_notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, n *SOAPNote) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO soap_note (
			id, patient_id, provider_id, admission_id, appointment_id,
			encounter_date, encounter_type, status,
			chief_complaint, history_of_present_illness,
			vital_signs_summary, physical_examination, lab_results,
			primary_diagnosis, primary_diagnosis_icd10, clinical_impression,
			treatment_plan, medications_prescribed, follow_up_instructions
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19
		)`,
		n.ID, n.PatientID, n.ProviderID, n.AdmissionID, n.AppointmentID,
		n.EncounterDate, n.EncounterType, n.Status,
		n.ChiefComplaint, n.HistoryOfPresentIllness,
		n.VitalSignsSummary, n.PhysicalExamination, n.LabResults,
		n.PrimaryDiagnosis, n.PrimaryDiagnosisICD10, n.ClinicalImpression,
		n.TreatmentPlan, n.MedicationsPrescribed, n.FollowUpInstructions,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SOAPNote, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM soap_note WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, n *SOAPNote) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE soap_note SET
			encounter_type=$2, status=$3,
			chief_complaint=$4, history_of_present_illness=$5,
			vital_signs_summary=$6, physical_examination=$7, lab_results=$8,
			primary_diagnosis=$9, primary_diagnosis_icd10=$10, clinical_impression=$11,
			treatment_plan=$12, medications_prescribed=$13, follow_up_instructions=$14,
			signed_at=$15, amendment_notes=$16, updated_at=NOW()
		WHERE id = $1`,
		n.ID, n.EncounterType, n.Status,
		n.ChiefComplaint, n.HistoryOfPresentIllness,
		n.VitalSignsSummary, n.PhysicalExamination, n.LabResults,
		n.PrimaryDiagnosis, n.PrimaryDiagnosisICD10, n.ClinicalImpression,
		n.TreatmentPlan, n.MedicationsPrescribed, n.FollowUpInstructions,
		n.SignedAt, n.AmendmentNotes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SOAPNote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM soap_note WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM soap_note
		WHERE patient_id = $1
		ORDER BY encounter_date DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes, err := collectNotes(rows)
	return notes, total, err
}

func (r *repoPG) ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*SOAPNote, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+noteCols+` FROM soap_note
		WHERE admission_id = $1
		ORDER BY encounter_date DESC`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotes(rows)
}

func collectNotes(rows pgx.Rows) ([]*SOAPNote, error) {
	var out []*SOAPNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNote(row pgx.Row) (*SOAPNote, error) {
	var n SOAPNote
	err := row.Scan(
		&n.ID, &n.PatientID, &n.ProviderID, &n.AdmissionID, &n.AppointmentID,
		&n.EncounterDate, &n.EncounterType, &n.Status,
		&n.ChiefComplaint, &n.HistoryOfPresentIllness,
		&n.VitalSignsSummary, &n.PhysicalExamination, &n.LabResults,
		&n.PrimaryDiagnosis, &n.PrimaryDiagnosisICD10, &n.ClinicalImpression,
		&n.TreatmentPlan, &n.MedicationsPrescribed, &n.FollowUpInstructions,
		&n.SignedAt, &n.AmendmentNotes, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan soap note: %w", err)
	}
	return &n, nil
}
