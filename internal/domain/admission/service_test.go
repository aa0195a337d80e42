package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/laso/hms/internal/domain/ward"
	"github.com/laso/hms/internal/platform/apperr"
	"github.com/laso/hms/internal/platform/events"
)

// fakeStore backs both the Repository and the BedAllocator so a rolled-back
// transaction reverts bed state together with the admission writes, as the
// shared-transaction wiring does against Postgres.
type fakeStore struct {
	mu         sync.Mutex
	admissions map[uuid.UUID]*Admission
	transfers  []*TransferRecord
	seqs       map[string]int
	beds       map[uuid.UUID]*ward.Bed
	inTx       bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		admissions: make(map[uuid.UUID]*Admission),
		seqs:       make(map[string]int),
		beds:       make(map[uuid.UUID]*ward.Bed),
	}
}

func (f *fakeStore) addBed(status ward.BedStatus) uuid.UUID {
	id := uuid.New()
	f.beds[id] = &ward.Bed{ID: id, Status: status, IsActive: true}
	return id
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	for id, a := range f.admissions {
		copied := *a
		s.admissions[id] = &copied
	}
	s.transfers = append([]*TransferRecord(nil), f.transfers...)
	for day, n := range f.seqs {
		s.seqs[day] = n
	}
	for id, b := range f.beds {
		copied := *b
		s.beds[id] = &copied
	}
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.admissions = s.admissions
	f.transfers = s.transfers
	f.seqs = s.seqs
	f.beds = s.beds
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inTx {
		return fn(ctx)
	}
	f.inTx = true
	defer func() { f.inTx = false }()

	// Same contract as the pgx runner: events published inside the
	// transaction are held back until commit.
	ctx, buf := events.WithBuffer(ctx)
	before := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(before)
		return err
	}
	buf.Flush()
	return nil
}

func (f *fakeStore) lock() func() {
	if f.inTx {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) NextSequence(_ context.Context, day time.Time) (int, error) {
	defer f.lock()()
	key := day.Format("2006-01-02")
	f.seqs[key]++
	return f.seqs[key], nil
}

func (f *fakeStore) Create(_ context.Context, a *Admission) error {
	defer f.lock()()
	a.ID = uuid.New()
	copied := *a
	f.admissions[a.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*Admission, error) {
	defer f.lock()()
	a, ok := f.admissions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) GetByNumber(_ context.Context, number string) (*Admission, error) {
	defer f.lock()()
	for _, a := range f.admissions {
		if a.AdmissionNumber == number {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, a *Admission) error {
	defer f.lock()()
	if _, ok := f.admissions[a.ID]; !ok {
		return apperr.ErrNotFound
	}
	copied := *a
	f.admissions[a.ID] = &copied
	return nil
}

func (f *fakeStore) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Admission, int, error) {
	defer f.lock()()
	var out []*Admission
	for _, a := range f.admissions {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.PatientID != uuid.Nil && a.PatientID != filter.PatientID {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeStore) AddTransfer(_ context.Context, t *TransferRecord) error {
	defer f.lock()()
	t.ID = uuid.New()
	t.TransferredAt = time.Now().UTC()
	copied := *t
	f.transfers = append(f.transfers, &copied)
	return nil
}

func (f *fakeStore) ListTransfers(_ context.Context, admissionID uuid.UUID) ([]*TransferRecord, error) {
	defer f.lock()()
	var out []*TransferRecord
	for i := len(f.transfers) - 1; i >= 0; i-- {
		if f.transfers[i].AdmissionID == admissionID {
			out = append(out, f.transfers[i])
		}
	}
	return out, nil
}

func (f *fakeStore) OccupyBed(_ context.Context, bedID, patientID uuid.UUID) (*ward.Bed, error) {
	defer f.lock()()
	b, ok := f.beds[bedID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if b.Status != ward.BedAvailable && b.Status != ward.BedReserved {
		return nil, apperr.Wrap(apperr.ErrBedUnavailable, "bed is %s", b.Status)
	}
	b.Status = ward.BedOccupied
	b.CurrentPatientID = &patientID
	copied := *b
	return &copied, nil
}

func (f *fakeStore) ReleaseBed(_ context.Context, bedID uuid.UUID) (*ward.Bed, error) {
	defer f.lock()()
	b, ok := f.beds[bedID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if b.Status != ward.BedOccupied {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "bed is %s", b.Status)
	}
	b.Status = ward.BedCleaning
	b.CurrentPatientID = nil
	copied := *b
	return &copied, nil
}

func newTestService(store *fakeStore, at time.Time) *Service {
	svc := NewService(store, store, nil)
	svc.now = func() time.Time { return at }
	return svc
}

func validAdmission(bedID *uuid.UUID) *Admission {
	return &Admission{
		PatientID:          uuid.New(),
		AdmittingDoctorID:  uuid.New(),
		AdmissionDiagnosis: "acute appendicitis",
		BedID:              bedID,
	}
}

func TestAdmit_SequentialNumbers(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(store, day)
	ctx := context.Background()

	first := validAdmission(nil)
	if err := svc.Admit(ctx, first); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	second := validAdmission(nil)
	if err := svc.Admit(ctx, second); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if first.AdmissionNumber != "ADM-20240501-0001" {
		t.Errorf("first number = %s", first.AdmissionNumber)
	}
	if second.AdmissionNumber != "ADM-20240501-0002" {
		t.Errorf("second number = %s", second.AdmissionNumber)
	}
	if first.Status != StatusAdmitted {
		t.Errorf("status = %s, want admitted", first.Status)
	}
}

func TestAdmit_SequenceResetsDaily(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	svc := newTestService(store, time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))
	a := validAdmission(nil)
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatal(err)
	}

	svc = newTestService(store, time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC))
	b := validAdmission(nil)
	if err := svc.Admit(ctx, b); err != nil {
		t.Fatal(err)
	}
	if b.AdmissionNumber != "ADM-20240502-0001" {
		t.Errorf("next-day number = %s, want ADM-20240502-0001", b.AdmissionNumber)
	}
}

func TestAdmit_ConcurrentNumbersUnique(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(store, day)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := validAdmission(nil)
			if err := svc.Admit(ctx, a); err != nil {
				t.Errorf("Admit: %v", err)
				return
			}
			numbers[i] = a.AdmissionNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		if seen[num] {
			t.Errorf("duplicate admission number %s", num)
		}
		seen[num] = true
	}
}

func TestAdmit_WithBed(t *testing.T) {
	store := newFakeStore()
	bedID := store.addBed(ward.BedAvailable)
	svc := newTestService(store, time.Now().UTC())

	a := validAdmission(&bedID)
	if err := svc.Admit(context.Background(), a); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if store.beds[bedID].Status != ward.BedOccupied {
		t.Errorf("bed status = %s, want occupied", store.beds[bedID].Status)
	}
	if store.beds[bedID].CurrentPatientID == nil || *store.beds[bedID].CurrentPatientID != a.PatientID {
		t.Error("bed not bound to admitted patient")
	}
}

func TestAdmit_BedUnavailableIsAllOrNothing(t *testing.T) {
	store := newFakeStore()
	bedID := store.addBed(ward.BedOccupied)
	svc := newTestService(store, time.Now().UTC())

	a := validAdmission(&bedID)
	err := svc.Admit(context.Background(), a)
	if !errors.Is(err, apperr.ErrBedUnavailable) {
		t.Fatalf("expected ErrBedUnavailable, got %v", err)
	}
	if len(store.admissions) != 0 {
		t.Error("expected no admission persisted after failed bed grab")
	}
	if len(store.seqs) != 0 {
		t.Error("expected sequence allocation rolled back")
	}
}

func TestAdmit_Validation(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Now().UTC())
	ctx := context.Background()

	cases := []*Admission{
		{AdmittingDoctorID: uuid.New(), AdmissionDiagnosis: "x"},
		{PatientID: uuid.New(), AdmissionDiagnosis: "x"},
		{PatientID: uuid.New(), AdmittingDoctorID: uuid.New()},
	}
	for i, a := range cases {
		if err := svc.Admit(ctx, a); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func admitted(t *testing.T, store *fakeStore, svc *Service, bedID *uuid.UUID) *Admission {
	t.Helper()
	a := validAdmission(bedID)
	if err := svc.Admit(context.Background(), a); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	return a
}

func TestTransferBed(t *testing.T) {
	store := newFakeStore()
	oldBed := store.addBed(ward.BedAvailable)
	newBed := store.addBed(ward.BedAvailable)
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, &oldBed)

	got, err := svc.TransferBed(ctx, a.ID, newBed, ReasonWardTransfer, "closer to nurses station", nil)
	if err != nil {
		t.Fatalf("TransferBed: %v", err)
	}
	if got.BedID == nil || *got.BedID != newBed {
		t.Error("admission not rebound to new bed")
	}
	if store.beds[oldBed].Status != ward.BedCleaning {
		t.Errorf("old bed = %s, want cleaning", store.beds[oldBed].Status)
	}
	if store.beds[newBed].Status != ward.BedOccupied {
		t.Errorf("new bed = %s, want occupied", store.beds[newBed].Status)
	}

	transfers, err := svc.ListTransfers(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected exactly 1 transfer record, got %d", len(transfers))
	}
	rec := transfers[0]
	if rec.FromBedID == nil || *rec.FromBedID != oldBed || rec.ToBedID != newBed {
		t.Errorf("unexpected ledger entry %+v", rec)
	}
	if rec.Reason != ReasonWardTransfer {
		t.Errorf("reason = %s", rec.Reason)
	}
}

func TestTransferBed_FirstAssignment(t *testing.T) {
	store := newFakeStore()
	bed := store.addBed(ward.BedAvailable)
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, nil)
	if _, err := svc.TransferBed(ctx, a.ID, bed, "", "", nil); err != nil {
		t.Fatalf("TransferBed: %v", err)
	}

	transfers, _ := svc.ListTransfers(ctx, a.ID)
	if len(transfers) != 1 || transfers[0].FromBedID != nil {
		t.Errorf("expected single entry with nil from_bed, got %+v", transfers)
	}
	if transfers[0].Reason != ReasonBedTransfer {
		t.Errorf("expected default reason bed_transfer, got %s", transfers[0].Reason)
	}
}

func TestTransferBed_UnavailableRollsBack(t *testing.T) {
	store := newFakeStore()
	oldBed := store.addBed(ward.BedAvailable)
	busyBed := store.addBed(ward.BedOccupied)
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, &oldBed)

	_, err := svc.TransferBed(ctx, a.ID, busyBed, "", "", nil)
	if !errors.Is(err, apperr.ErrBedUnavailable) {
		t.Fatalf("expected ErrBedUnavailable, got %v", err)
	}

	current, _ := svc.Get(ctx, a.ID)
	if current.BedID == nil || *current.BedID != oldBed {
		t.Error("admission should keep its old bed after failed transfer")
	}
	if store.beds[oldBed].Status != ward.BedOccupied {
		t.Errorf("old bed = %s, want occupied", store.beds[oldBed].Status)
	}
	if transfers, _ := svc.ListTransfers(ctx, a.ID); len(transfers) != 0 {
		t.Errorf("expected no ledger entry, got %d", len(transfers))
	}
}

// publishingAllocator mirrors the ward service: every bed transition is
// announced on the bus from inside the ambient transaction.
type publishingAllocator struct {
	store *fakeStore
	bus   events.Publisher
}

func (p *publishingAllocator) OccupyBed(ctx context.Context, bedID, patientID uuid.UUID) (*ward.Bed, error) {
	b, err := p.store.OccupyBed(ctx, bedID, patientID)
	if err != nil {
		return nil, err
	}
	p.bus.Publish(ctx, events.Event{Resource: "bed", ID: b.ID.String(), Status: string(b.Status)})
	return b, nil
}

func (p *publishingAllocator) ReleaseBed(ctx context.Context, bedID uuid.UUID) (*ward.Bed, error) {
	b, err := p.store.ReleaseBed(ctx, bedID)
	if err != nil {
		return nil, err
	}
	p.bus.Publish(ctx, events.Event{Resource: "bed", ID: b.ID.String(), Status: string(b.Status)})
	return b, nil
}

func recordingBus(t *testing.T) (*events.Bus, func() []events.Event) {
	t.Helper()
	bus := events.NewBus()
	var mu sync.Mutex
	var seen []events.Event
	bus.Subscribe(events.SubscriberFunc(func(e events.Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	}))
	return bus, func() []events.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]events.Event(nil), seen...)
	}
}

func TestTransferBed_RollbackEmitsNoBedEvents(t *testing.T) {
	store := newFakeStore()
	oldBed := store.addBed(ward.BedAvailable)
	newBed := store.addBed(ward.BedAvailable)

	bus, recorded := recordingBus(t)
	alloc := &publishingAllocator{store: store, bus: bus}
	svc := NewService(store, alloc, bus)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	a := validAdmission(&oldBed)
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	admitEvents := len(recorded())
	if admitEvents == 0 {
		t.Fatal("expected admit events after commit")
	}

	// Wreck the release path: the new bed gets occupied first, then the
	// old bed refuses to release, so the whole transfer rolls back.
	store.beds[oldBed].Status = ward.BedCleaning

	_, err := svc.TransferBed(ctx, a.ID, newBed, "", "", nil)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if extra := recorded()[admitEvents:]; len(extra) != 0 {
		t.Errorf("events escaped the rolled-back transfer: %+v", extra)
	}
	if store.beds[newBed].Status != ward.BedAvailable {
		t.Errorf("new bed = %s, want available after rollback", store.beds[newBed].Status)
	}
}

func TestTransferBed_PublishesBedEventsAfterCommit(t *testing.T) {
	store := newFakeStore()
	oldBed := store.addBed(ward.BedAvailable)
	newBed := store.addBed(ward.BedAvailable)

	bus, recorded := recordingBus(t)
	alloc := &publishingAllocator{store: store, bus: bus}
	svc := NewService(store, alloc, bus)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	a := validAdmission(&oldBed)
	if err := svc.Admit(ctx, a); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	admitEvents := len(recorded())

	if _, err := svc.TransferBed(ctx, a.ID, newBed, "", "", nil); err != nil {
		t.Fatalf("TransferBed: %v", err)
	}

	var occupied, cleaning bool
	for _, e := range recorded()[admitEvents:] {
		if e.Resource != "bed" {
			continue
		}
		switch {
		case e.ID == newBed.String() && e.Status == string(ward.BedOccupied):
			occupied = true
		case e.ID == oldBed.String() && e.Status == string(ward.BedCleaning):
			cleaning = true
		}
	}
	if !occupied || !cleaning {
		t.Errorf("expected occupy and release events after commit, got %+v", recorded()[admitEvents:])
	}
}

func TestTransferBed_TerminalAdmission(t *testing.T) {
	store := newFakeStore()
	bed := store.addBed(ward.BedAvailable)
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, nil)
	if _, err := svc.Discharge(ctx, a.ID, DischargeRequest{DischargedBy: uuid.New()}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.TransferBed(ctx, a.ID, bed, "", "", nil)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDischarge(t *testing.T) {
	store := newFakeStore()
	bed := store.addBed(ward.BedAvailable)
	at := time.Date(2024, 5, 3, 14, 0, 0, 0, time.UTC)
	svc := newTestService(store, at)
	ctx := context.Background()

	a := admitted(t, store, svc, &bed)
	doctor := uuid.New()

	got, err := svc.Discharge(ctx, a.ID, DischargeRequest{
		DischargedBy: doctor,
		Diagnosis:    "resolved",
		Summary:      "uneventful recovery",
		Instructions: "rest, fluids",
	})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if got.Status != StatusDischarged {
		t.Errorf("status = %s", got.Status)
	}
	if got.ActualDischargeDate == nil || !got.ActualDischargeDate.Equal(at) {
		t.Error("expected discharge date stamped")
	}
	if got.BedID != nil {
		t.Error("expected bed binding cleared")
	}
	if store.beds[bed].Status != ward.BedCleaning {
		t.Errorf("bed = %s, want cleaning", store.beds[bed].Status)
	}
	if got.DischargedByID == nil || *got.DischargedByID != doctor {
		t.Error("expected discharged_by recorded")
	}
}

func TestDischarge_AlreadyDischarged(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, nil)
	if _, err := svc.Discharge(ctx, a.ID, DischargeRequest{DischargedBy: uuid.New(), Summary: "first"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Discharge(ctx, a.ID, DischargeRequest{DischargedBy: uuid.New(), Summary: "second"})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	current, _ := svc.Get(ctx, a.ID)
	if current.DischargeSummary != "first" {
		t.Error("second discharge must leave fields unchanged")
	}
}

func TestUpdateStatus_ForwardOnly(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, nil)

	if _, err := svc.UpdateStatus(ctx, a.ID, StatusInTreatment); err != nil {
		t.Fatalf("admitted -> in_treatment: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, a.ID, StatusPendingDischarge); err != nil {
		t.Fatalf("in_treatment -> pending_discharge: %v", err)
	}

	// Backward moves are rejected.
	_, err := svc.UpdateStatus(ctx, a.ID, StatusInTreatment)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition going backward, got %v", err)
	}
}

func TestUpdateStatus_DischargedNeedsPaperwork(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now().UTC())

	a := admitted(t, store, svc, nil)
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusDischarged); err == nil {
		t.Error("expected error: discharged is only reachable through Discharge")
	}
}

func TestUpdateStatus_SideExitReleasesBed(t *testing.T) {
	store := newFakeStore()
	bed := store.addBed(ward.BedAvailable)
	svc := newTestService(store, time.Now().UTC())
	ctx := context.Background()

	a := admitted(t, store, svc, &bed)

	got, err := svc.UpdateStatus(ctx, a.ID, StatusAbsconded)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.BedID != nil {
		t.Error("expected bed binding cleared on side exit")
	}
	if store.beds[bed].Status != ward.BedCleaning {
		t.Errorf("bed = %s, want cleaning", store.beds[bed].Status)
	}

	// Terminal now: nothing moves it again.
	if _, err := svc.UpdateStatus(ctx, a.ID, StatusInTreatment); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on terminal admission, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusAdmitted, StatusInTreatment, true},
		{StatusAdmitted, StatusPendingDischarge, true},
		{StatusInTreatment, StatusAdmitted, false},
		{StatusPendingDischarge, StatusDischarged, true},
		{StatusAdmitted, StatusDeceased, true},
		{StatusInTreatment, StatusTransferred, true},
		{StatusDischarged, StatusInTreatment, false},
		{StatusDeceased, StatusAbsconded, false},
		{StatusAdmitted, StatusAdmitted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestLengthOfStay(t *testing.T) {
	admitAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a := &Admission{AdmissionDate: admitAt}

	// Ongoing stay measures against now.
	if got := a.LengthOfStay(admitAt.Add(50 * time.Hour)); got != 2 {
		t.Errorf("ongoing LOS = %d, want 2", got)
	}

	out := admitAt.Add(26 * time.Hour)
	a.ActualDischargeDate = &out
	if got := a.LengthOfStay(time.Now()); got != 1 {
		t.Errorf("discharged LOS = %d, want 1", got)
	}

	// Same-day discharge is zero, never negative.
	sameDay := admitAt.Add(2 * time.Hour)
	a.ActualDischargeDate = &sameDay
	if got := a.LengthOfStay(time.Now()); got != 0 {
		t.Errorf("same-day LOS = %d, want 0", got)
	}
}

func TestFormatNumber(t *testing.T) {
	day := time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)
	if got := FormatNumber(day, 1); got != "ADM-20240501-0001" {
		t.Errorf("FormatNumber = %s", got)
	}
	if got := FormatNumber(day, 123); got != "ADM-20240501-0123" {
		t.Errorf("FormatNumber = %s", got)
	}
}
