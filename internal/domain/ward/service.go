package ward

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/events"
)

// MaxRoomCapacity bounds how many beds a single room may hold.
const MaxRoomCapacity = 20

var validWardTypes = map[WardType]bool{
	WardGeneral: true, WardICU: true, WardNICU: true, WardPICU: true,
	WardCCU: true, WardEmergency: true, WardSurgical: true, WardMaternity: true,
	WardPediatric: true, WardIsolation: true, WardOncology: true, WardOrthopedic: true,
}

var validRoomTypes = map[RoomType]bool{
	RoomPrivate: true, RoomSemiPrivate: true, RoomGeneral: true,
	RoomIsolation: true, RoomICU: true, RoomRecovery: true,
}

var validBedTypes = map[BedType]bool{
	BedStandard: true, BedElectric: true, BedICU: true,
	BedBariatric: true, BedPediatric: true, BedStretcher: true,
}

type Service struct {
	repo Repository
	bus  events.Publisher
}

func NewService(repo Repository, bus events.Publisher) *Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Service{repo: repo, bus: bus}
}

// -- Wards --

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if w.Name == "" {
		return fmt.Errorf("name is required")
	}
	if w.WardType == "" {
		w.WardType = WardGeneral
	}
	if !validWardTypes[w.WardType] {
		return fmt.Errorf("invalid ward_type: %s", w.WardType)
	}
	w.IsActive = true
	return s.repo.CreateWard(ctx, w)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.repo.GetWard(ctx, id)
}

func (s *Service) UpdateWard(ctx context.Context, w *Ward) error {
	if !validWardTypes[w.WardType] {
		return fmt.Errorf("invalid ward_type: %s", w.WardType)
	}
	return s.repo.UpdateWard(ctx, w)
}

func (s *Service) ListWards(ctx context.Context, limit, offset int) ([]*Ward, int, error) {
	return s.repo.ListWards(ctx, limit, offset)
}

// WardOccupancy computes the ward's bed counts from current bed state.
// Decommissioned beds are excluded from every count.
func (s *Service) WardOccupancy(ctx context.Context, wardID uuid.UUID) (*Occupancy, error) {
	if _, err := s.repo.GetWard(ctx, wardID); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountBedsByStatus(ctx, wardID)
	if err != nil {
		return nil, err
	}

	occ := &Occupancy{
		WardID:      wardID,
		Available:   counts[BedAvailable],
		Occupied:    counts[BedOccupied],
		Reserved:    counts[BedReserved],
		Maintenance: counts[BedMaintenance],
		Cleaning:    counts[BedCleaning],
	}
	for _, n := range counts {
		occ.TotalBeds += n
	}
	if occ.TotalBeds > 0 {
		occ.OccupancyRate = math.Round(float64(occ.Occupied)/float64(occ.TotalBeds)*1000) / 10
	}
	return occ, nil
}

// -- Rooms --

func (s *Service) CreateRoom(ctx context.Context, room *Room) error {
	if room.RoomNumber == "" {
		return fmt.Errorf("room_number is required")
	}
	if room.RoomType == "" {
		room.RoomType = RoomGeneral
	}
	if !validRoomTypes[room.RoomType] {
		return fmt.Errorf("invalid room_type: %s", room.RoomType)
	}
	if room.Capacity < 1 || room.Capacity > MaxRoomCapacity {
		return fmt.Errorf("capacity must be between 1 and %d", MaxRoomCapacity)
	}

	w, err := s.repo.GetWard(ctx, room.WardID)
	if err != nil {
		return err
	}
	if !w.IsActive {
		return apperr.Wrap(apperr.ErrInactiveResource, "ward %s is inactive", w.Name)
	}
	room.IsActive = true
	return s.repo.CreateRoom(ctx, room)
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *Service) ListRoomsByWard(ctx context.Context, wardID uuid.UUID) ([]*Room, error) {
	return s.repo.ListRoomsByWard(ctx, wardID)
}

// RoomAvailability reports free capacity from live bed state.
func (s *Service) RoomAvailability(ctx context.Context, roomID uuid.UUID) (*RoomAvailability, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	beds, err := s.repo.ListBedsByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	avail := &RoomAvailability{RoomID: roomID, Capacity: room.Capacity}
	active := 0
	for _, b := range beds {
		if !b.IsActive {
			continue
		}
		active++
		if b.Status == BedAvailable {
			avail.AvailableBeds++
		}
	}
	// A room is full when every capacity slot is taken and none of the placed
	// beds can accept a patient.
	avail.IsFull = active >= room.Capacity && avail.AvailableBeds == 0
	return avail, nil
}

// -- Beds --

func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	if b.BedNumber == "" {
		return fmt.Errorf("bed_number is required")
	}
	if b.BedType == "" {
		b.BedType = BedStandard
	}
	if !validBedTypes[b.BedType] {
		return fmt.Errorf("invalid bed_type: %s", b.BedType)
	}

	room, err := s.repo.GetRoom(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return apperr.Wrap(apperr.ErrInactiveResource, "room %s is inactive", room.RoomNumber)
	}
	placed, err := s.repo.CountActiveBedsInRoom(ctx, b.RoomID)
	if err != nil {
		return err
	}
	if placed >= room.Capacity {
		return fmt.Errorf("room %s is at capacity (%d beds)", room.RoomNumber, room.Capacity)
	}

	b.Status = BedAvailable
	b.IsActive = true
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return err
	}
	b.WardID = room.WardID
	return nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetBed(ctx, id)
}

func (s *Service) ListBedsByRoom(ctx context.Context, roomID uuid.UUID) ([]*Bed, error) {
	return s.repo.ListBedsByRoom(ctx, roomID)
}

func (s *Service) ListBedsByWard(ctx context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	if status != "" && !validBedStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	return s.repo.ListBedsByWard(ctx, wardID, status)
}

func validBedStatus(s BedStatus) bool {
	for _, known := range AllBedStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OccupyBed assigns a patient to a bed. Only available or reserved beds can
// be occupied; losing a race for the same bed reports ErrBedUnavailable.
func (s *Service) OccupyBed(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if err := s.checkPlacementActive(ctx, bedID); err != nil {
		return nil, err
	}

	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedAvailable, BedReserved}, BedOccupied, &patientID)
	if err != nil {
		return nil, asUnavailable(err)
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// ReleaseBed vacates an occupied bed. The bed always passes through cleaning;
// it never goes straight back to available.
func (s *Service) ReleaseBed(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedOccupied}, BedCleaning, nil)
	if err != nil {
		return nil, err
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// MarkBedCleaned returns a cleaned bed to service and stamps last_cleaned.
func (s *Service) MarkBedCleaned(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedCleaning}, BedAvailable, nil)
	if err != nil {
		return nil, err
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// ReserveBed holds an available bed for a planned admission.
func (s *Service) ReserveBed(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	if err := s.checkPlacementActive(ctx, bedID); err != nil {
		return nil, err
	}
	var pid *uuid.UUID
	if patientID != uuid.Nil {
		pid = &patientID
	}
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedAvailable}, BedReserved, pid)
	if err != nil {
		return nil, asUnavailable(err)
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// CancelReservation releases a reserved bed back to available.
func (s *Service) CancelReservation(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedReserved}, BedAvailable, nil)
	if err != nil {
		return nil, err
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// StartBedMaintenance takes an unoccupied bed out of service.
func (s *Service) StartBedMaintenance(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedAvailable, BedCleaning, BedReserved}, BedMaintenance, nil)
	if err != nil {
		return nil, err
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// EndBedMaintenance routes a maintained bed through cleaning before reuse.
func (s *Service) EndBedMaintenance(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	bed, err := s.repo.TransitionBed(ctx, bedID, []BedStatus{BedMaintenance}, BedCleaning, nil)
	if err != nil {
		return nil, err
	}
	s.publishBed(ctx, bed)
	return bed, nil
}

// asUnavailable reclassifies a failed assignment. A bed that cannot accept a
// patient right now, whether found that way or lost in a race, reads the same
// to the caller: pick another bed.
func asUnavailable(err error) error {
	if errors.Is(err, apperr.ErrInvalidTransition) {
		return apperr.Wrap(apperr.ErrBedUnavailable, "bed not assignable")
	}
	return err
}

// checkPlacementActive rejects new occupancy in decommissioned rooms or
// inactive wards. Existing occupants are unaffected.
func (s *Service) checkPlacementActive(ctx context.Context, bedID uuid.UUID) error {
	bed, err := s.repo.GetBed(ctx, bedID)
	if err != nil {
		return err
	}
	room, err := s.repo.GetRoom(ctx, bed.RoomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return apperr.Wrap(apperr.ErrInactiveResource, "room %s is inactive", room.RoomNumber)
	}
	w, err := s.repo.GetWard(ctx, room.WardID)
	if err != nil {
		return err
	}
	if !w.IsActive {
		return apperr.Wrap(apperr.ErrInactiveResource, "ward %s is inactive", w.Name)
	}
	return nil
}

func (s *Service) publishBed(ctx context.Context, bed *Bed) {
	var patientID string
	if bed.CurrentPatientID != nil {
		patientID = bed.CurrentPatientID.String()
	}
	s.bus.Publish(ctx, events.Event{
		Resource:  "bed",
		ID:        bed.ID.String(),
		WardID:    bed.WardID.String(),
		PatientID: patientID,
		Status:    string(bed.Status),
	})
}
