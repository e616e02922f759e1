package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salon-booking/booksy-webhook/reconciler"
	"salon-booking/shared/config"
	"salon-booking/shared/models"
)

type fakeStore struct {
	bookings map[uuid.UUID]*models.BooksyBooking
	byMsgID  map[string]uuid.UUID
	mappings map[string]*models.BooksyWorkerMapping
	blocks   map[uuid.UUID]*models.TimeBlock
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings: make(map[uuid.UUID]*models.BooksyBooking),
		byMsgID:  make(map[string]uuid.UUID),
		mappings: make(map[string]*models.BooksyWorkerMapping),
		blocks:   make(map[uuid.UUID]*models.TimeBlock),
	}
}

func (s *fakeStore) FindWorkerMapping(_ context.Context, workerName string) (*models.BooksyWorkerMapping, error) {
	return s.mappings[workerName], nil
}

func (s *fakeStore) CreateWorkerMapping(_ context.Context, m *models.BooksyWorkerMapping) error {
	s.mappings[m.WorkerName] = m
	return nil
}

func (s *fakeStore) InsertBooking(_ context.Context, b *models.BooksyBooking) error {
	if _, ok := s.byMsgID[b.EmailMessageID]; ok {
		return reconciler.ErrDuplicateMessage
	}
	s.bookings[b.ID] = b
	s.byMsgID[b.EmailMessageID] = b.ID
	return nil
}

func (s *fakeStore) FindActiveBooking(_ context.Context, clientName string, start time.Time, tolerance time.Duration) (*models.BooksyBooking, error) {
	for _, b := range s.bookings {
		if b.ClientName == clientName && b.Status == models.BooksyActive &&
			!b.StartTime.Before(start.Add(-tolerance)) && !b.StartTime.After(start.Add(tolerance)) {
			return b, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) SetBookingStatus(_ context.Context, id uuid.UUID, status models.BooksyStatus) error {
	s.bookings[id].Status = status
	return nil
}

func (s *fakeStore) LinkTimeBlock(_ context.Context, bookingID, blockID uuid.UUID) error {
	s.bookings[bookingID].TimeBlockID = &blockID
	return nil
}

func (s *fakeStore) InsertTimeBlock(_ context.Context, tb *models.TimeBlock) error {
	s.blocks[tb.ID] = tb
	return nil
}

func (s *fakeStore) DeleteTimeBlock(_ context.Context, id uuid.UUID) error {
	delete(s.blocks, id)
	return nil
}

func newTestRouter(secret string) (*gin.Engine, *fakeStore) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Booksy.WebhookSecret = secret
	cfg.Booksy.SenderDomain = "booksy"

	store := newFakeStore()
	h := NewWebhookHandler(cfg, reconciler.New(store))

	r := gin.New()
	r.Any("/webhooks/booksy", h.HandleBooksyEmail)
	return r, store
}

func newBookingForm() url.Values {
	return url.Values{
		"from":    {"powiadomienia@booksy.com"},
		"subject": {"Anna Nowak: nowa rezerwacja"},
		"headers": {"Message-Id: <msg-1@booksy.com>\nDate: Mon, 23 Feb 2026 16:01:00 +0100"},
		"html": {`<div><b>Anna Nowak</b> dokonała nowej rezerwacji.</div>
<div>poniedziałek, 23 lutego 2026, 17:00 - 19:00</div>
<div>Manicure hybrydowy</div>
<div>126,00 zł, 17:00 - 19:00</div>
<div>pracownik: Agnessa</div>`},
	}
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/booksy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsNonPost(t *testing.T) {
	r, _ := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/webhooks/booksy", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

func TestWebhookRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter("s3cret")

	w := post(r, newBookingForm().Encode())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/booksy?token=s3cret",
		strings.NewReader(newBookingForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("correct token status = %d, want 200", w.Code)
	}
}

func TestWebhookIgnoresUnrelatedEmail(t *testing.T) {
	r, store := newTestRouter("")

	form := url.Values{
		"from":    {"biuro@example.com"},
		"subject": {"faktura za prąd"},
		"text":    {"płatność do 15 dnia miesiąca"},
	}
	w := post(r, form.Encode())

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ignored") {
		t.Errorf("body = %q, want ignored outcome", w.Body.String())
	}
	if len(store.bookings) != 0 {
		t.Errorf("unrelated email stored %d bookings", len(store.bookings))
	}
}

func TestWebhookCreatesBookingAndDeduplicates(t *testing.T) {
	r, store := newTestRouter("")

	w := post(r, newBookingForm().Encode())
	if w.Code != http.StatusOK || w.Body.String() != "created" {
		t.Fatalf("first delivery: status %d, body %q", w.Code, w.Body.String())
	}
	if len(store.bookings) != 1 {
		t.Fatalf("stored %d bookings, want 1", len(store.bookings))
	}
	for _, b := range store.bookings {
		if b.EmailMessageID != "msg-1@booksy.com" {
			t.Errorf("message id = %q", b.EmailMessageID)
		}
		if b.ClientName != "Anna Nowak" {
			t.Errorf("client name = %q", b.ClientName)
		}
		if b.TimeBlockID == nil {
			t.Error("booking not linked to a time block")
		}
	}

	// redelivery of the same message must be a no-op
	w = post(r, newBookingForm().Encode())
	if w.Code != http.StatusOK || w.Body.String() != "duplicate" {
		t.Errorf("redelivery: status %d, body %q", w.Code, w.Body.String())
	}
	if len(store.bookings) != 1 {
		t.Errorf("redelivery grew the store to %d bookings", len(store.bookings))
	}
}

func TestWebhookAcceptsBase64Body(t *testing.T) {
	r, store := newTestRouter("")

	encoded := base64.StdEncoding.EncodeToString([]byte(newBookingForm().Encode()))
	w := post(r, encoded)

	if w.Code != http.StatusOK || w.Body.String() != "created" {
		t.Fatalf("base64 delivery: status %d, body %q", w.Code, w.Body.String())
	}
	if len(store.bookings) != 1 {
		t.Errorf("stored %d bookings, want 1", len(store.bookings))
	}
}
