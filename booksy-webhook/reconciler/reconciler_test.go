package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"salon-booking/booksy-webhook/parser"
	"salon-booking/shared/models"
)

// memStore is an in-memory Store for exercising the reconciliation state
// machine without Postgres.
type memStore struct {
	mappings map[string]*models.BooksyWorkerMapping
	bookings map[uuid.UUID]*models.BooksyBooking
	blocks   map[uuid.UUID]*models.TimeBlock
	byMsgID  map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		mappings: make(map[string]*models.BooksyWorkerMapping),
		bookings: make(map[uuid.UUID]*models.BooksyBooking),
		blocks:   make(map[uuid.UUID]*models.TimeBlock),
		byMsgID:  make(map[string]uuid.UUID),
	}
}

func (s *memStore) FindWorkerMapping(_ context.Context, workerName string) (*models.BooksyWorkerMapping, error) {
	return s.mappings[workerName], nil
}

func (s *memStore) CreateWorkerMapping(_ context.Context, m *models.BooksyWorkerMapping) error {
	if _, ok := s.mappings[m.WorkerName]; !ok {
		s.mappings[m.WorkerName] = m
	}
	return nil
}

func (s *memStore) InsertBooking(_ context.Context, b *models.BooksyBooking) error {
	if _, ok := s.byMsgID[b.EmailMessageID]; ok {
		return ErrDuplicateMessage
	}
	copied := *b
	s.bookings[b.ID] = &copied
	s.byMsgID[b.EmailMessageID] = b.ID
	return nil
}

func (s *memStore) FindActiveBooking(_ context.Context, clientName string, start time.Time, tolerance time.Duration) (*models.BooksyBooking, error) {
	for _, b := range s.bookings {
		if b.ClientName != clientName || b.Status != models.BooksyActive {
			continue
		}
		diff := b.StartTime.Sub(start)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return b, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetBookingStatus(_ context.Context, id uuid.UUID, status models.BooksyStatus) error {
	if b, ok := s.bookings[id]; ok {
		b.Status = status
	}
	return nil
}

func (s *memStore) LinkTimeBlock(_ context.Context, bookingID, blockID uuid.UUID) error {
	if b, ok := s.bookings[bookingID]; ok {
		id := blockID
		b.TimeBlockID = &id
	}
	return nil
}

func (s *memStore) InsertTimeBlock(_ context.Context, tb *models.TimeBlock) error {
	copied := *tb
	s.blocks[tb.ID] = &copied
	return nil
}

func (s *memStore) DeleteTimeBlock(_ context.Context, id uuid.UUID) error {
	delete(s.blocks, id)
	return nil
}

func warsaw(hour, minute int) time.Time {
	return time.Date(2026, time.February, 23, hour, minute, 0, 0, time.FixedZone("CET", 3600))
}

func newEvent(emailType models.EmailType) *parser.BookingEvent {
	return &parser.BookingEvent{
		ClientName:  "Anna Nowak",
		ServiceName: "Manicure hybrydowy",
		WorkerName:  "Agnessa",
		StartTime:   warsaw(17, 0),
		EndTime:     warsaw(19, 0),
		EmailType:   emailType,
	}
}

func TestApplyNewCreatesBookingAndBlock(t *testing.T) {
	store := newMemStore()
	r := New(store)

	outcome, err := r.Apply(context.Background(), newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("outcome = %s, want created", outcome)
	}
	if len(store.bookings) != 1 || len(store.blocks) != 1 {
		t.Fatalf("bookings = %d, blocks = %d", len(store.bookings), len(store.blocks))
	}
	for _, b := range store.bookings {
		if b.Status != models.BooksyActive {
			t.Errorf("status = %s", b.Status)
		}
		if b.TimeBlockID == nil {
			t.Error("time block not back-linked")
		}
	}
}

func TestApplyIsIdempotentPerMessageID(t *testing.T) {
	store := newMemStore()
	r := New(store)
	ctx := context.Background()

	if _, err := r.Apply(ctx, newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}
	outcome, err := r.Apply(ctx, newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("second delivery outcome = %s, want duplicate", outcome)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("stored %d bookings, want 1", len(store.bookings))
	}
}

func TestUnknownWorkerIsAutoRegistered(t *testing.T) {
	store := newMemStore()
	r := New(store)

	if _, err := r.Apply(context.Background(), newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}

	mapping, ok := store.mappings["Agnessa"]
	if !ok {
		t.Fatal("worker mapping not created")
	}
	if mapping.StylistID != nil {
		t.Error("auto-registered mapping should be unassigned")
	}
	for _, b := range store.bookings {
		if b.SyncStatus != models.SyncUnmapped {
			t.Errorf("sync status = %s, want unmapped", b.SyncStatus)
		}
		if b.StylistID != nil {
			t.Error("stylist must stay unresolved for unmapped worker")
		}
	}
}

func TestMappedWorkerResolvesStylist(t *testing.T) {
	store := newMemStore()
	stylistID := uuid.New()
	store.mappings["Agnessa"] = &models.BooksyWorkerMapping{
		ID:         uuid.New(),
		WorkerName: "Agnessa",
		StylistID:  &stylistID,
	}
	r := New(store)

	if _, err := r.Apply(context.Background(), newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}

	for _, b := range store.bookings {
		if b.SyncStatus != models.SyncMapped {
			t.Errorf("sync status = %s, want mapped", b.SyncStatus)
		}
		if b.StylistID == nil || *b.StylistID != stylistID {
			t.Error("stylist id not resolved from mapping")
		}
	}
	for _, block := range store.blocks {
		if block.StylistID == nil || *block.StylistID != stylistID {
			t.Error("time block not tagged with resolved stylist")
		}
	}
}

func TestApplyChangedSupersedesPriorBooking(t *testing.T) {
	store := newMemStore()
	r := New(store)
	ctx := context.Background()

	if _, err := r.Apply(ctx, newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}
	var priorID uuid.UUID
	for id := range store.bookings {
		priorID = id
	}

	changed := newEvent(models.EmailChanged)
	// stored 17:00 vs parsed 17:00:30 — inside the one-minute window
	oldStart := warsaw(17, 0).Add(30 * time.Second)
	oldEnd := warsaw(19, 0)
	changed.OldStartTime = &oldStart
	changed.OldEndTime = &oldEnd
	changed.StartTime = warsaw(12, 0).AddDate(0, 0, 2)
	changed.EndTime = warsaw(14, 0).AddDate(0, 0, 2)

	outcome, err := r.Apply(ctx, changed, "raw", "<msg-2@booksy>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome = %s, want updated", outcome)
	}

	prior := store.bookings[priorID]
	if prior.Status != models.BooksyChanged {
		t.Errorf("prior status = %s, want changed", prior.Status)
	}
	if len(store.blocks) != 1 {
		t.Fatalf("blocks = %d, want 1 (old removed, new inserted)", len(store.blocks))
	}

	var successor *models.BooksyBooking
	for id, b := range store.bookings {
		if id != priorID {
			successor = b
		}
	}
	if successor == nil {
		t.Fatal("successor row missing")
	}
	if successor.PreviousBookingID == nil || *successor.PreviousBookingID != priorID {
		t.Error("successor not linked to prior booking")
	}
	if successor.Status != models.BooksyActive {
		t.Errorf("successor status = %s, want active", successor.Status)
	}
}

func TestApplyCancelledMarksPriorAndKeepsAuditRow(t *testing.T) {
	store := newMemStore()
	r := New(store)
	ctx := context.Background()

	if _, err := r.Apply(ctx, newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}
	var priorID uuid.UUID
	for id := range store.bookings {
		priorID = id
	}

	cancelled := newEvent(models.EmailCancelled)
	outcome, err := r.Apply(ctx, cancelled, "raw", "<msg-2@booksy>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCancelled {
		t.Fatalf("outcome = %s, want cancelled", outcome)
	}

	if store.bookings[priorID].Status != models.BooksyCancelled {
		t.Error("prior booking not marked cancelled")
	}
	if len(store.blocks) != 0 {
		t.Errorf("blocks = %d, want 0 after cancellation", len(store.blocks))
	}
	if len(store.bookings) != 2 {
		t.Fatalf("bookings = %d, want prior + audit row", len(store.bookings))
	}
}

func TestApplyCancelledWithoutPriorStillRecords(t *testing.T) {
	store := newMemStore()
	r := New(store)

	outcome, err := r.Apply(context.Background(), newEvent(models.EmailCancelled), "raw", "<msg-1@booksy>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCancelled {
		t.Fatalf("outcome = %s, want cancelled", outcome)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("bookings = %d, want audit row even without a match", len(store.bookings))
	}
	for _, b := range store.bookings {
		if b.PreviousBookingID != nil {
			t.Error("previous booking id must be nil when nothing matched")
		}
		if b.Status != models.BooksyCancelled {
			t.Errorf("status = %s, want cancelled", b.Status)
		}
	}
}

func TestApplyStoresParseErrorRecord(t *testing.T) {
	store := newMemStore()
	r := New(store)

	event := &parser.BookingEvent{EmailType: models.EmailNew}
	outcome, err := r.Apply(context.Background(), event, "raw email body", "<msg-1@booksy>", []string{"client name not found", "start time not found"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeParseError {
		t.Fatalf("outcome = %s, want parse-error", outcome)
	}
	for _, b := range store.bookings {
		if b.SyncStatus != models.SyncError {
			t.Errorf("sync status = %s, want error", b.SyncStatus)
		}
		if b.ParseErrors == nil || *b.ParseErrors == "" {
			t.Error("parse errors note missing")
		}
		if b.RawEmail != "raw email body" {
			t.Error("raw email snapshot missing")
		}
	}
}

func TestChangedOutsideToleranceDoesNotMatch(t *testing.T) {
	store := newMemStore()
	r := New(store)
	ctx := context.Background()

	if _, err := r.Apply(ctx, newEvent(models.EmailNew), "raw", "<msg-1@booksy>", nil); err != nil {
		t.Fatal(err)
	}
	var priorID uuid.UUID
	for id := range store.bookings {
		priorID = id
	}

	changed := newEvent(models.EmailChanged)
	oldStart := warsaw(17, 5) // five minutes off: outside the window
	changed.OldStartTime = &oldStart
	changed.StartTime = warsaw(12, 0).AddDate(0, 0, 2)
	changed.EndTime = warsaw(14, 0).AddDate(0, 0, 2)

	if _, err := r.Apply(ctx, changed, "raw", "<msg-2@booksy>", nil); err != nil {
		t.Fatal(err)
	}

	if store.bookings[priorID].Status != models.BooksyActive {
		t.Error("prior booking must stay active when no match within tolerance")
	}
	var successor *models.BooksyBooking
	for id, b := range store.bookings {
		if id != priorID {
			successor = b
		}
	}
	if successor.PreviousBookingID != nil {
		t.Error("successor must not link to an unmatched booking")
	}
}
