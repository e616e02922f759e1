package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"salon-booking/shared/models"
)

// ErrDuplicateMessage signals that an email with the same message id has
// already been processed. Webhooks can be delivered more than once; the
// unique constraint on email_message_id is the idempotency guard.
var ErrDuplicateMessage = errors.New("email message already processed")

type Store interface {
	// FindWorkerMapping returns (nil, nil) when the name has never been seen.
	FindWorkerMapping(ctx context.Context, workerName string) (*models.BooksyWorkerMapping, error)
	CreateWorkerMapping(ctx context.Context, m *models.BooksyWorkerMapping) error

	// InsertBooking returns ErrDuplicateMessage on an email_message_id collision.
	InsertBooking(ctx context.Context, b *models.BooksyBooking) error
	// FindActiveBooking matches by client name and a start time within the
	// given tolerance window; returns (nil, nil) when nothing matches.
	FindActiveBooking(ctx context.Context, clientName string, start time.Time, tolerance time.Duration) (*models.BooksyBooking, error)
	SetBookingStatus(ctx context.Context, id uuid.UUID, status models.BooksyStatus) error
	LinkTimeBlock(ctx context.Context, bookingID, blockID uuid.UUID) error

	InsertTimeBlock(ctx context.Context, tb *models.TimeBlock) error
	DeleteTimeBlock(ctx context.Context, id uuid.UUID) error
}

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindWorkerMapping(ctx context.Context, workerName string) (*models.BooksyWorkerMapping, error) {
	var m models.BooksyWorkerMapping
	err := s.db.GetContext(ctx, &m,
		"SELECT * FROM booksy_worker_mappings WHERE worker_name = $1", workerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) CreateWorkerMapping(ctx context.Context, m *models.BooksyWorkerMapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO booksy_worker_mappings (id, worker_name, stylist_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (worker_name) DO NOTHING`,
		m.ID, m.WorkerName, m.StylistID)
	return err
}

func (s *PostgresStore) InsertBooking(ctx context.Context, b *models.BooksyBooking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO booksy_bookings (
			id, client_name, client_phone, client_email, service_name,
			worker_name, price_text, start_time, end_time, status,
			sync_status, stylist_id, email_message_id, email_type,
			previous_booking_id, raw_email, parse_errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		b.ID, b.ClientName, b.ClientPhone, b.ClientEmail, b.ServiceName,
		b.WorkerName, b.PriceText, b.StartTime, b.EndTime, b.Status,
		b.SyncStatus, b.StylistID, b.EmailMessageID, b.EmailType,
		b.PreviousBookingID, b.RawEmail, b.ParseErrors)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateMessage
	}
	return err
}

func (s *PostgresStore) FindActiveBooking(ctx context.Context, clientName string, start time.Time, tolerance time.Duration) (*models.BooksyBooking, error) {
	var b models.BooksyBooking
	err := s.db.GetContext(ctx, &b, `
		SELECT * FROM booksy_bookings
		WHERE client_name = $1 AND status = 'active'
		  AND start_time BETWEEN $2 AND $3
		ORDER BY created_at DESC LIMIT 1`,
		clientName, start.Add(-tolerance), start.Add(tolerance))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) SetBookingStatus(ctx context.Context, id uuid.UUID, status models.BooksyStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE booksy_bookings SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id)
	return err
}

func (s *PostgresStore) LinkTimeBlock(ctx context.Context, bookingID, blockID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE booksy_bookings SET time_block_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		blockID, bookingID)
	return err
}

func (s *PostgresStore) InsertTimeBlock(ctx context.Context, tb *models.TimeBlock) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_blocks (id, stylist_id, start_time, end_time, source)
		VALUES ($1, $2, $3, $4, $5)`,
		tb.ID, tb.StylistID, tb.StartTime, tb.EndTime, tb.Source)
	return err
}

func (s *PostgresStore) DeleteTimeBlock(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM time_blocks WHERE id = $1", id)
	return err
}
