package ward

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/events"
)

type mockRepo struct {
	mu    sync.Mutex
	wards map[uuid.UUID]*Ward
	rooms map[uuid.UUID]*Room
	beds  map[uuid.UUID]*Bed
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		wards: make(map[uuid.UUID]*Ward),
		rooms: make(map[uuid.UUID]*Room),
		beds:  make(map[uuid.UUID]*Bed),
	}
}

func (m *mockRepo) CreateWard(_ context.Context, w *Ward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = uuid.New()
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) GetWard(_ context.Context, id uuid.UUID) (*Ward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wards[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *w
	return &copied, nil
}

func (m *mockRepo) UpdateWard(_ context.Context, w *Ward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wards[w.ID]; !ok {
		return apperr.ErrNotFound
	}
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) ListWards(_ context.Context, limit, offset int) ([]*Ward, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ward
	for _, w := range m.wards {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *mockRepo) CreateRoom(_ context.Context, r *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	m.rooms[r.ID] = r
	return nil
}

func (m *mockRepo) GetRoom(_ context.Context, id uuid.UUID) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRepo) ListRoomsByWard(_ context.Context, wardID uuid.UUID) ([]*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Room
	for _, r := range m.rooms {
		if r.WardID == wardID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) CountActiveBedsInRoom(_ context.Context, roomID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.beds {
		if b.RoomID == roomID && b.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateBed(_ context.Context, b *Bed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) ListBedsByRoom(_ context.Context, roomID uuid.UUID) ([]*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Bed
	for _, b := range m.beds {
		if b.RoomID == roomID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) ListBedsByWard(_ context.Context, wardID uuid.UUID, status BedStatus) ([]*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Bed
	for _, b := range m.beds {
		if b.WardID == wardID && (status == "" || b.Status == status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) CountBedsByStatus(_ context.Context, wardID uuid.UUID) (map[BedStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[BedStatus]int)
	for _, b := range m.beds {
		if b.WardID == wardID && b.IsActive {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (m *mockRepo) TransitionBed(_ context.Context, id uuid.UUID, from []BedStatus, to BedStatus, patientID *uuid.UUID) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.beds[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !b.IsActive {
		return nil, apperr.Wrap(apperr.ErrInactiveResource, "bed %s is decommissioned", b.BedNumber)
	}
	accepted := false
	for _, f := range from {
		if b.Status == f {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition,
			"bed %s is %s, cannot move to %s", b.BedNumber, b.Status, to)
	}
	if to == BedAvailable && b.Status == BedCleaning {
		now := time.Now().UTC()
		b.LastCleaned = &now
	}
	b.Status = to
	b.CurrentPatientID = patientID
	copied := *b
	return &copied, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// seed creates a ward with one room and n available beds.
func seed(t *testing.T, repo *mockRepo, roomCapacity, beds int) (*Ward, *Room, []*Bed) {
	t.Helper()
	ctx := context.Background()

	w := &Ward{Name: "General A", WardType: WardGeneral, Floor: 2, IsActive: true}
	if err := repo.CreateWard(ctx, w); err != nil {
		t.Fatal(err)
	}
	room := &Room{WardID: w.ID, RoomNumber: "201", RoomType: RoomGeneral, Capacity: roomCapacity, IsActive: true}
	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatal(err)
	}

	var created []*Bed
	for i := 0; i < beds; i++ {
		b := &Bed{
			RoomID:    room.ID,
			WardID:    w.ID,
			BedNumber: "201-" + string(rune('A'+i)),
			BedType:   BedStandard,
			Status:    BedAvailable,
			IsActive:  true,
		}
		if err := repo.CreateBed(ctx, b); err != nil {
			t.Fatal(err)
		}
		created = append(created, b)
	}
	return w, room, created
}

func TestOccupyBed(t *testing.T) {
	repo := newMockRepo()
	pub := &capturePublisher{}
	svc := NewService(repo, pub)
	_, _, beds := seed(t, repo, 4, 1)
	ctx := context.Background()
	patientID := uuid.New()

	bed, err := svc.OccupyBed(ctx, beds[0].ID, patientID)
	if err != nil {
		t.Fatalf("OccupyBed: %v", err)
	}
	if bed.Status != BedOccupied {
		t.Errorf("status = %s, want occupied", bed.Status)
	}
	if bed.CurrentPatientID == nil || *bed.CurrentPatientID != patientID {
		t.Error("expected current patient to be set")
	}
	if pub.count() != 1 {
		t.Errorf("expected 1 bed event, got %d", pub.count())
	}

	// Second occupy of the same bed must be rejected.
	_, err = svc.OccupyBed(ctx, beds[0].ID, uuid.New())
	if !errors.Is(err, apperr.ErrBedUnavailable) {
		t.Errorf("expected ErrBedUnavailable, got %v", err)
	}
}

func TestOccupyReservedBed(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)
	ctx := context.Background()
	patientID := uuid.New()

	if _, err := svc.ReserveBed(ctx, beds[0].ID, patientID); err != nil {
		t.Fatalf("ReserveBed: %v", err)
	}
	bed, err := svc.OccupyBed(ctx, beds[0].ID, patientID)
	if err != nil {
		t.Fatalf("OccupyBed on reserved: %v", err)
	}
	if bed.Status != BedOccupied {
		t.Errorf("status = %s, want occupied", bed.Status)
	}
}

func TestReleaseBedGoesThroughCleaning(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)
	ctx := context.Background()

	if _, err := svc.OccupyBed(ctx, beds[0].ID, uuid.New()); err != nil {
		t.Fatal(err)
	}
	bed, err := svc.ReleaseBed(ctx, beds[0].ID)
	if err != nil {
		t.Fatalf("ReleaseBed: %v", err)
	}
	if bed.Status != BedCleaning {
		t.Errorf("released bed status = %s, want cleaning", bed.Status)
	}
	if bed.CurrentPatientID != nil {
		t.Error("expected patient pointer cleared on release")
	}

	// Not assignable until housekeeping signs off.
	if _, err := svc.OccupyBed(ctx, beds[0].ID, uuid.New()); !errors.Is(err, apperr.ErrBedUnavailable) {
		t.Errorf("expected ErrBedUnavailable while cleaning, got %v", err)
	}

	bed, err = svc.MarkBedCleaned(ctx, beds[0].ID)
	if err != nil {
		t.Fatalf("MarkBedCleaned: %v", err)
	}
	if bed.Status != BedAvailable {
		t.Errorf("cleaned bed status = %s, want available", bed.Status)
	}
	if bed.LastCleaned == nil {
		t.Error("expected last_cleaned stamped")
	}
}

func TestReleaseUnoccupiedBed(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)

	_, err := svc.ReleaseBed(context.Background(), beds[0].ID)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMarkCleanedRequiresCleaningState(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)

	_, err := svc.MarkBedCleaned(context.Background(), beds[0].ID)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOccupyBed_InactiveWard(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	w, _, beds := seed(t, repo, 4, 1)

	w.IsActive = false
	_, err := svc.OccupyBed(context.Background(), beds[0].ID, uuid.New())
	if !errors.Is(err, apperr.ErrInactiveResource) {
		t.Errorf("expected ErrInactiveResource, got %v", err)
	}
}

func TestOccupyBed_Missing(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	_, err := svc.OccupyBed(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentOccupy_OneWinner(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)
	ctx := context.Background()

	const contenders = 10
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.OccupyBed(ctx, beds[0].ID, uuid.New())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, apperr.ErrBedUnavailable) {
			t.Errorf("loser got unexpected error %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
}

func TestWardOccupancy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	w, _, beds := seed(t, repo, 10, 4)
	ctx := context.Background()

	if _, err := svc.OccupyBed(ctx, beds[0].ID, uuid.New()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReserveBed(ctx, beds[1].ID, uuid.New()); err != nil {
		t.Fatal(err)
	}

	occ, err := svc.WardOccupancy(ctx, w.ID)
	if err != nil {
		t.Fatalf("WardOccupancy: %v", err)
	}
	if occ.TotalBeds != 4 || occ.Occupied != 1 || occ.Reserved != 1 || occ.Available != 2 {
		t.Errorf("unexpected occupancy %+v", occ)
	}
	if occ.OccupancyRate != 25.0 {
		t.Errorf("occupancy rate = %v, want 25.0", occ.OccupancyRate)
	}
}

func TestWardOccupancy_EmptyWard(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	w, _, _ := seed(t, repo, 4, 0)

	occ, err := svc.WardOccupancy(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("WardOccupancy: %v", err)
	}
	if occ.TotalBeds != 0 || occ.OccupancyRate != 0 {
		t.Errorf("expected zeroed occupancy, got %+v", occ)
	}
}

func TestWardOccupancy_ExcludesDecommissionedBeds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	w, _, beds := seed(t, repo, 4, 2)

	beds[1].IsActive = false
	occ, err := svc.WardOccupancy(context.Background(), w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if occ.TotalBeds != 1 {
		t.Errorf("total = %d, want 1", occ.TotalBeds)
	}
}

func TestRoomAvailability(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, room, beds := seed(t, repo, 2, 2)
	ctx := context.Background()

	avail, err := svc.RoomAvailability(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avail.AvailableBeds != 2 || avail.IsFull {
		t.Errorf("unexpected availability %+v", avail)
	}

	for _, b := range beds {
		if _, err := svc.OccupyBed(ctx, b.ID, uuid.New()); err != nil {
			t.Fatal(err)
		}
	}
	avail, err = svc.RoomAvailability(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avail.AvailableBeds != 0 || !avail.IsFull {
		t.Errorf("expected full room, got %+v", avail)
	}
}

func TestCreateRoom_CapacityBounds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	w, _, _ := seed(t, repo, 4, 0)
	ctx := context.Background()

	for _, capacity := range []int{0, -1, MaxRoomCapacity + 1} {
		room := &Room{WardID: w.ID, RoomNumber: "X", RoomType: RoomGeneral, Capacity: capacity}
		if err := svc.CreateRoom(ctx, room); err == nil {
			t.Errorf("expected error for capacity %d", capacity)
		}
	}
}

func TestCreateBed_RoomFull(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, room, _ := seed(t, repo, 2, 2)

	b := &Bed{RoomID: room.ID, BedNumber: "201-C", BedType: BedStandard}
	if err := svc.CreateBed(context.Background(), b); err == nil {
		t.Error("expected error when adding a bed past room capacity")
	}
}

func TestMaintenanceCycle(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	_, _, beds := seed(t, repo, 4, 1)
	ctx := context.Background()

	if _, err := svc.StartBedMaintenance(ctx, beds[0].ID); err != nil {
		t.Fatalf("StartBedMaintenance: %v", err)
	}
	if _, err := svc.OccupyBed(ctx, beds[0].ID, uuid.New()); !errors.Is(err, apperr.ErrBedUnavailable) {
		t.Errorf("expected ErrBedUnavailable during maintenance, got %v", err)
	}

	bed, err := svc.EndBedMaintenance(ctx, beds[0].ID)
	if err != nil {
		t.Fatalf("EndBedMaintenance: %v", err)
	}
	if bed.Status != BedCleaning {
		t.Errorf("post-maintenance status = %s, want cleaning", bed.Status)
	}
}
