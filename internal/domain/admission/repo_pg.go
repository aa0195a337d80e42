package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTx(ctx, r.pool, fn)
}

// NextSequence bumps the per-day counter row. The upsert serializes concurrent
// admits on the row lock, so duplicate sequence numbers cannot be issued.
func (r *repoPG) NextSequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admission_counter (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = admission_counter.seq + 1
		RETURNING seq`,
		day.Format("2006-01-02"),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next admission sequence: %w", err)
	}
	return seq, nil
}

const admCols = `id, admission_number, patient_id, admission_type, status,
	admission_date, expected_discharge_date, actual_discharge_date,
	admitting_doctor_id, attending_doctor_id, admission_diagnosis, chief_complaint,
	bed_id,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
	payment_type, insurance_policy_number,
	discharge_diagnosis, discharge_summary, discharge_instructions,
	follow_up_instructions, discharged_by_id,
	notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_admission (
			id, admission_number, patient_id, admission_type, status,
			admission_date, expected_discharge_date,
			admitting_doctor_id, attending_doctor_id, admission_diagnosis, chief_complaint,
			bed_id,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
			payment_type, insurance_policy_number, notes
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18
		)`,
		a.ID, a.AdmissionNumber, a.PatientID, a.AdmissionType, a.Status,
		a.AdmissionDate, a.ExpectedDischargeDate,
		a.AdmittingDoctorID, a.AttendingDoctorID, a.AdmissionDiagnosis, a.ChiefComplaint,
		a.BedID,
		a.EmergencyContactName, a.EmergencyContactPhone, a.EmergencyContactRelationship,
		a.PaymentType, a.InsurancePolicyNumber, a.Notes,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admCols+` FROM patient_admission WHERE id = $1`, id))
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Admission, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admCols+` FROM patient_admission WHERE admission_number = $1`, number))
}

func (r *repoPG) Update(ctx context.Context, a *Admission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_admission SET
			status=$2, expected_discharge_date=$3, actual_discharge_date=$4,
			attending_doctor_id=$5, chief_complaint=$6, bed_id=$7,
			emergency_contact_name=$8, emergency_contact_phone=$9, emergency_contact_relationship=$10,
			payment_type=$11, insurance_policy_number=$12,
			discharge_diagnosis=$13, discharge_summary=$14, discharge_instructions=$15,
			follow_up_instructions=$16, discharged_by_id=$17,
			notes=$18, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.ExpectedDischargeDate, a.ActualDischargeDate,
		a.AttendingDoctorID, a.ChiefComplaint, a.BedID,
		a.EmergencyContactName, a.EmergencyContactPhone, a.EmergencyContactRelationship,
		a.PaymentType, a.InsurancePolicyNumber,
		a.DischargeDiagnosis, a.DischargeSummary, a.DischargeInstructions,
		a.FollowUpInstructions, a.DischargedByID,
		a.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		where += fmt.Sprintf(clause, n)
		args = append(args, v)
	}
	if filter.Status != "" {
		add(` AND status = $%d`, filter.Status)
	}
	if filter.PatientID != uuid.Nil {
		add(` AND patient_id = $%d`, filter.PatientID)
	}
	if filter.DoctorID != uuid.Nil {
		add(` AND (admitting_doctor_id = $%d OR attending_doctor_id = $%[1]d)`, filter.DoctorID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_admission`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + admCols + ` FROM patient_admission` + where +
		fmt.Sprintf(` ORDER BY admission_date DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repoPG) AddTransfer(ctx context.Context, t *TransferRecord) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_transfer (
			id, admission_id, from_bed_id, to_bed_id, transfer_reason, notes, transferred_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING transferred_at`,
		t.ID, t.AdmissionID, t.FromBedID, t.ToBedID, t.Reason, t.Notes, t.TransferredBy,
	).Scan(&t.TransferredAt)
}

func (r *repoPG) ListTransfers(ctx context.Context, admissionID uuid.UUID) ([]*TransferRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, admission_id, from_bed_id, to_bed_id, transfer_reason, notes,
			transferred_by, transferred_at
		FROM patient_transfer
		WHERE admission_id = $1
		ORDER BY transferred_at DESC`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TransferRecord
	for rows.Next() {
		var t TransferRecord
		if err := rows.Scan(
			&t.ID, &t.AdmissionID, &t.FromBedID, &t.ToBedID, &t.Reason, &t.Notes,
			&t.TransferredBy, &t.TransferredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID, &a.AdmissionNumber, &a.PatientID, &a.AdmissionType, &a.Status,
		&a.AdmissionDate, &a.ExpectedDischargeDate, &a.ActualDischargeDate,
		&a.AdmittingDoctorID, &a.AttendingDoctorID, &a.AdmissionDiagnosis, &a.ChiefComplaint,
		&a.BedID,
		&a.EmergencyContactName, &a.EmergencyContactPhone, &a.EmergencyContactRelationship,
		&a.PaymentType, &a.InsurancePolicyNumber,
		&a.DischargeDiagnosis, &a.DischargeSummary, &a.DischargeInstructions,
		&a.FollowUpInstructions, &a.DischargedByID,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan admission: %w", err)
	}
	return &a, nil
}
