package reconciler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"salon-booking/booksy-webhook/parser"
	"salon-booking/shared/models"
)

type Outcome string

const (
	OutcomeCreated    Outcome = "created"
	OutcomeUpdated    Outcome = "updated"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeParseError Outcome = "parse-error"
)

// matchTolerance is the window for matching a changed/cancelled email
// against a stored booking. It defends against sub-second formatting
// differences, not against genuine ambiguity; do not tighten or loosen.
const matchTolerance = time.Minute

type Reconciler struct {
	store Store
}

func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Apply persists one parsed Booksy email. Every email leaves a row behind:
// unparseable ones as sync_status=error audit records, duplicates as a
// no-op. The multi-step flows (insert booking, insert block, back-link)
// are separate round trips with no transaction; a crash in between leaves
// a booking without its block link, which admin tooling can repair.
func (r *Reconciler) Apply(ctx context.Context, event *parser.BookingEvent, rawEmail, messageID string, problems []string) (Outcome, error) {
	if event.ClientName == "" || event.StartTime.IsZero() {
		return r.storeParseError(ctx, event, rawEmail, messageID, problems)
	}

	stylistID, syncStatus, err := r.resolveWorker(ctx, event.WorkerName)
	if err != nil {
		return "", fmt.Errorf("resolve worker %q: %w", event.WorkerName, err)
	}

	switch event.EmailType {
	case models.EmailChanged:
		return r.applyChanged(ctx, event, rawEmail, messageID, stylistID, syncStatus)
	case models.EmailCancelled:
		return r.applyCancelled(ctx, event, rawEmail, messageID, stylistID, syncStatus)
	default:
		return r.applyNew(ctx, event, rawEmail, messageID, stylistID, syncStatus)
	}
}

// resolveWorker maps the external worker name to a stylist. An unknown
// name is auto-registered unassigned so it surfaces in the admin UI; the
// booking is still recorded, only the attribution is pending.
func (r *Reconciler) resolveWorker(ctx context.Context, workerName string) (*uuid.UUID, models.SyncStatus, error) {
	if workerName == "" {
		return nil, models.SyncUnmapped, nil
	}

	mapping, err := r.store.FindWorkerMapping(ctx, workerName)
	if err != nil {
		return nil, "", err
	}
	if mapping == nil {
		mapping = &models.BooksyWorkerMapping{
			ID:         uuid.New(),
			WorkerName: workerName,
		}
		if err := r.store.CreateWorkerMapping(ctx, mapping); err != nil {
			return nil, "", err
		}
		log.Printf("booksy: registered unknown worker %q for admin review", workerName)
		return nil, models.SyncUnmapped, nil
	}
	if mapping.StylistID == nil {
		return nil, models.SyncUnmapped, nil
	}
	return mapping.StylistID, models.SyncMapped, nil
}

func (r *Reconciler) applyNew(ctx context.Context, event *parser.BookingEvent, rawEmail, messageID string, stylistID *uuid.UUID, syncStatus models.SyncStatus) (Outcome, error) {
	booking := bookingFromEvent(event, rawEmail, messageID, stylistID, syncStatus)
	booking.Status = models.BooksyActive

	if err := r.store.InsertBooking(ctx, booking); err != nil {
		if err == ErrDuplicateMessage {
			return OutcomeDuplicate, nil
		}
		return "", err
	}

	if err := r.blockAndLink(ctx, booking); err != nil {
		return "", err
	}
	return OutcomeCreated, nil
}

func (r *Reconciler) applyChanged(ctx context.Context, event *parser.BookingEvent, rawEmail, messageID string, stylistID *uuid.UUID, syncStatus models.SyncStatus) (Outcome, error) {
	var prior *models.BooksyBooking
	if event.OldStartTime != nil {
		var err error
		prior, err = r.store.FindActiveBooking(ctx, event.ClientName, *event.OldStartTime, matchTolerance)
		if err != nil {
			return "", err
		}
	}

	if prior != nil {
		if err := r.store.SetBookingStatus(ctx, prior.ID, models.BooksyChanged); err != nil {
			return "", err
		}
		if prior.TimeBlockID != nil {
			if err := r.store.DeleteTimeBlock(ctx, *prior.TimeBlockID); err != nil {
				return "", err
			}
		}
	}

	booking := bookingFromEvent(event, rawEmail, messageID, stylistID, syncStatus)
	booking.Status = models.BooksyActive
	if prior != nil {
		booking.PreviousBookingID = &prior.ID
	}

	if err := r.store.InsertBooking(ctx, booking); err != nil {
		if err == ErrDuplicateMessage {
			return OutcomeDuplicate, nil
		}
		return "", err
	}

	if err := r.blockAndLink(ctx, booking); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

// applyCancelled records the cancellation email itself even when no
// matching original booking exists locally.
func (r *Reconciler) applyCancelled(ctx context.Context, event *parser.BookingEvent, rawEmail, messageID string, stylistID *uuid.UUID, syncStatus models.SyncStatus) (Outcome, error) {
	prior, err := r.store.FindActiveBooking(ctx, event.ClientName, event.StartTime, matchTolerance)
	if err != nil {
		return "", err
	}

	if prior != nil {
		if err := r.store.SetBookingStatus(ctx, prior.ID, models.BooksyCancelled); err != nil {
			return "", err
		}
		if prior.TimeBlockID != nil {
			if err := r.store.DeleteTimeBlock(ctx, *prior.TimeBlockID); err != nil {
				return "", err
			}
		}
	}

	booking := bookingFromEvent(event, rawEmail, messageID, stylistID, syncStatus)
	booking.Status = models.BooksyCancelled
	if prior != nil {
		booking.PreviousBookingID = &prior.ID
	}

	if err := r.store.InsertBooking(ctx, booking); err != nil {
		if err == ErrDuplicateMessage {
			return OutcomeDuplicate, nil
		}
		return "", err
	}
	return OutcomeCancelled, nil
}

// storeParseError keeps the unparseable email as an error-status audit row
// for human triage; the webhook still reports success upstream.
func (r *Reconciler) storeParseError(ctx context.Context, event *parser.BookingEvent, rawEmail, messageID string, problems []string) (Outcome, error) {
	booking := bookingFromEvent(event, rawEmail, messageID, nil, models.SyncError)
	booking.Status = models.BooksyActive
	if event.EmailType == models.EmailCancelled {
		booking.Status = models.BooksyCancelled
	}
	note := strings.Join(problems, "; ")
	booking.ParseErrors = &note

	if err := r.store.InsertBooking(ctx, booking); err != nil {
		if err == ErrDuplicateMessage {
			return OutcomeDuplicate, nil
		}
		return "", err
	}
	return OutcomeParseError, nil
}

func (r *Reconciler) blockAndLink(ctx context.Context, booking *models.BooksyBooking) error {
	block := &models.TimeBlock{
		ID:        uuid.New(),
		StylistID: booking.StylistID,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Source:    "booksy",
	}
	if err := r.store.InsertTimeBlock(ctx, block); err != nil {
		return err
	}
	return r.store.LinkTimeBlock(ctx, booking.ID, block.ID)
}

func bookingFromEvent(event *parser.BookingEvent, rawEmail, messageID string, stylistID *uuid.UUID, syncStatus models.SyncStatus) *models.BooksyBooking {
	booking := &models.BooksyBooking{
		ID:             uuid.New(),
		ClientName:     event.ClientName,
		ServiceName:    event.ServiceName,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		SyncStatus:     syncStatus,
		StylistID:      stylistID,
		EmailMessageID: messageID,
		EmailType:      event.EmailType,
		RawEmail:       rawEmail,
	}
	if event.ClientPhone != "" {
		booking.ClientPhone = &event.ClientPhone
	}
	if event.ClientEmail != "" {
		booking.ClientEmail = &event.ClientEmail
	}
	if event.WorkerName != "" {
		booking.WorkerName = &event.WorkerName
	}
	if event.PriceText != "" {
		booking.PriceText = &event.PriceText
	}
	return booking
}
