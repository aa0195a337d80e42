package ward

import (
	"time"

	"github.com/google/uuid"
)

// WardType classifies a ward by clinical function.
type WardType string

const (
	WardGeneral    WardType = "general"
	WardICU        WardType = "icu"
	WardNICU       WardType = "nicu"
	WardPICU       WardType = "picu"
	WardCCU        WardType = "ccu"
	WardEmergency  WardType = "emergency"
	WardSurgical   WardType = "surgical"
	WardMaternity  WardType = "maternity"
	WardPediatric  WardType = "pediatric"
	WardIsolation  WardType = "isolation"
	WardOncology   WardType = "oncology"
	WardOrthopedic WardType = "orthopedic"
)

// Ward maps to the ward table.
type Ward struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	WardType    WardType   `db:"ward_type" json:"ward_type"`
	Floor       int        `db:"floor" json:"floor"`
	Building    string     `db:"building" json:"building,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	HeadNurseID *uuid.UUID `db:"head_nurse_id" json:"head_nurse_id,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomType classifies a room.
type RoomType string

const (
	RoomPrivate     RoomType = "private"
	RoomSemiPrivate RoomType = "semi_private"
	RoomGeneral     RoomType = "general"
	RoomIsolation   RoomType = "isolation"
	RoomICU         RoomType = "icu"
	RoomRecovery    RoomType = "recovery"
)

// Room maps to the room table. A room belongs to exactly one ward and holds
// at most Capacity active beds.
type Room struct {
	ID          uuid.UUID `db:"id" json:"id"`
	WardID      uuid.UUID `db:"ward_id" json:"ward_id"`
	RoomNumber  string    `db:"room_number" json:"room_number"`
	RoomType    RoomType  `db:"room_type" json:"room_type"`
	Capacity    int       `db:"capacity" json:"capacity"`
	HasBathroom bool      `db:"has_bathroom" json:"has_bathroom"`
	HasTV       bool      `db:"has_tv" json:"has_tv"`
	HasAC       bool      `db:"has_ac" json:"has_ac"`
	DailyRate   float64   `db:"daily_rate" json:"daily_rate"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BedStatus is the bed state machine's state.
type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedReserved    BedStatus = "reserved"
	BedMaintenance BedStatus = "maintenance"
	BedCleaning    BedStatus = "cleaning"
)

// AllBedStatuses enumerates every bed state, in reporting order.
var AllBedStatuses = []BedStatus{BedAvailable, BedOccupied, BedReserved, BedMaintenance, BedCleaning}

// BedType classifies the physical bed.
type BedType string

const (
	BedStandard  BedType = "standard"
	BedElectric  BedType = "electric"
	BedICU       BedType = "icu"
	BedBariatric BedType = "bariatric"
	BedPediatric BedType = "pediatric"
	BedStretcher BedType = "stretcher"
)

// Bed maps to the bed table. WardID is denormalized into every query result
// (joined through room) so callers can address events without extra lookups.
type Bed struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	RoomID           uuid.UUID  `db:"room_id" json:"room_id"`
	WardID           uuid.UUID  `db:"ward_id" json:"ward_id"`
	BedNumber        string     `db:"bed_number" json:"bed_number"`
	BedType          BedType    `db:"bed_type" json:"bed_type"`
	Status           BedStatus  `db:"status" json:"status"`
	CurrentPatientID *uuid.UUID `db:"current_patient_id" json:"current_patient_id,omitempty"`
	HasOxygen        bool       `db:"has_oxygen" json:"has_oxygen"`
	HasSuction       bool       `db:"has_suction" json:"has_suction"`
	HasMonitor       bool       `db:"has_monitor" json:"has_monitor"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	LastCleaned      *time.Time `db:"last_cleaned" json:"last_cleaned,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Occupancy is a derived snapshot of a ward's bed counts. Counts are computed
// by scanning beds, never stored.
type Occupancy struct {
	WardID      uuid.UUID `json:"ward_id"`
	TotalBeds   int       `json:"total_beds"`
	Available   int       `json:"available"`
	Occupied    int       `json:"occupied"`
	Reserved    int       `json:"reserved"`
	Maintenance int       `json:"maintenance"`
	Cleaning    int       `json:"cleaning"`
	// OccupancyRate is occupied/total as a percentage rounded to one decimal,
	// 0 for an empty ward.
	OccupancyRate float64 `json:"occupancy_rate"`
}

// RoomAvailability is the room-scoped derived view.
type RoomAvailability struct {
	RoomID        uuid.UUID `json:"room_id"`
	Capacity      int       `json:"capacity"`
	AvailableBeds int       `json:"available_beds"`
	IsFull        bool      `json:"is_full"`
}
