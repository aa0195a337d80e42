package ward

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

// -- Wards --

const wardCols = `id, name, ward_type, floor, building, description, head_nurse_id,
	is_active, created_at, updated_at`

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ward (id, name, ward_type, floor, building, description, head_nurse_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		w.ID, w.Name, w.WardType, w.Floor, w.Building, w.Description, w.HeadNurseID, w.IsActive,
	)
	return err
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
}

func (r *repoPG) UpdateWard(ctx context.Context, w *Ward) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE ward SET
			name=$2, ward_type=$3, floor=$4, building=$5, description=$6,
			head_nurse_id=$7, is_active=$8, updated_at=NOW()
		WHERE id = $1`,
		w.ID, w.Name, w.WardType, w.Floor, w.Building, w.Description, w.HeadNurseID, w.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *repoPG) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ward`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+wardCols+` FROM ward
		ORDER BY floor, name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, 0, err
		}
		wards = append(wards, w)
	}
	return wards, total, rows.Err()
}

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(
		&w.ID, &w.Name, &w.WardType, &w.Floor, &w.Building, &w.Description,
		&w.HeadNurseID, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// -- Rooms --

const roomCols = `id, ward_id, room_number, room_type, capacity, has_bathroom, has_tv,
	has_ac, daily_rate, notes, is_active, created_at`

func (r *repoPG) CreateRoom(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO room (id, ward_id, room_number, room_type, capacity, has_bathroom,
			has_tv, has_ac, daily_rate, notes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		room.ID, room.WardID, room.RoomNumber, room.RoomType, room.Capacity,
		room.HasBathroom, room.HasTV, room.HasAC, room.DailyRate, room.Notes, room.IsActive,
	)
	return err
}

func (r *repoPG) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room WHERE id = $1`, id))
}

func (r *repoPG) ListRoomsByWard(ctx context.Context, wardID uuid.UUID) ([]*Room, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+roomCols+` FROM room
		WHERE ward_id = $1
		ORDER BY room_number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *repoPG) CountActiveBedsInRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed WHERE room_id = $1 AND is_active`, roomID).Scan(&n)
	return n, err
}

func scanRoom(row pgx.Row) (*Room, error) {
	var room Room
	err := row.Scan(
		&room.ID, &room.WardID, &room.RoomNumber, &room.RoomType, &room.Capacity,
		&room.HasBathroom, &room.HasTV, &room.HasAC, &room.DailyRate, &room.Notes,
		&room.IsActive, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// -- Beds --

const bedCols = `b.id, b.room_id, r.ward_id, b.bed_number, b.bed_type, b.status,
	b.current_patient_id, b.has_oxygen, b.has_suction, b.has_monitor, b.notes,
	b.is_active, b.last_cleaned, b.created_at, b.updated_at`

const bedFrom = ` FROM bed b JOIN room r ON r.id = b.room_id`

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = BedAvailable
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (id, room_id, bed_number, bed_type, status, has_oxygen,
			has_suction, has_monitor, notes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.RoomID, b.BedNumber, b.BedType, b.Status,
		b.HasOxygen, b.HasSuction, b.HasMonitor, b.Notes, b.IsActive,
	)
	return err
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+bedFrom+` WHERE b.id = $1`, id))
}

func (r *repoPG) ListBedsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedCols+bedFrom+`
		WHERE b.room_id = $1
		ORDER BY b.bed_number`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeds(rows)
}

func (r *repoPG) ListBedsByWard(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	query := `SELECT ` + bedCols + bedFrom + ` WHERE r.ward_id = $1`
	args := []interface{}{wardID}
	if status != "" {
		query += ` AND b.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY b.bed_number`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBeds(rows)
}

func (r *repoPG) CountBedsByStatus(ctx context.Context, wardID uuid.UUID) (map[BedStatus]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.status, COUNT(*)
		FROM bed b JOIN room r ON r.id = b.room_id
		WHERE r.ward_id = $1 AND b.is_active
		GROUP BY b.status`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[BedStatus]int)
	for rows.Next() {
		var status BedStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) TransitionBed(ctx context.Context, id uuid.UUID, from []BedStatus, to BedStatus, patientID *uuid.UUID) (*Bed, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	// last_cleaned stamps the cleaning -> available edge.
	bed, err := scanBed(r.conn(ctx).QueryRow(ctx, `
		WITH updated AS (
			UPDATE bed SET
				status = $3,
				current_patient_id = $4,
				last_cleaned = CASE WHEN $3 = 'available' AND status = 'cleaning' THEN NOW() ELSE last_cleaned END,
				updated_at = NOW()
			WHERE id = $1 AND is_active AND status = ANY($2)
			RETURNING *
		)
		SELECT `+bedCols+` FROM updated b JOIN room r ON r.id = b.room_id`,
		id, fromStrs, to, patientID,
	))
	if err == nil {
		return bed, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	// No row updated: report why.
	current, getErr := r.GetBed(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if !current.IsActive {
		return nil, apperr.Wrap(apperr.ErrInactiveResource, "bed %s is decommissioned", current.BedNumber)
	}
	return nil, apperr.Wrap(apperr.ErrInvalidTransition,
		"bed %s is %s, cannot move to %s", current.BedNumber, current.Status, to)
}

func collectBeds(rows pgx.Rows) ([]*Bed, error) {
	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(
		&b.ID, &b.RoomID, &b.WardID, &b.BedNumber, &b.BedType, &b.Status,
		&b.CurrentPatientID, &b.HasOxygen, &b.HasSuction, &b.HasMonitor, &b.Notes,
		&b.IsActive, &b.LastCleaned, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan bed: %w", err)
	}
	return &b, nil
}
