package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStylist UserRole = "STYLIST"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BooksyStatus is the lifecycle state of a booking mirrored from a Booksy
// notification email. Rows are never deleted by the reconciler; later
// emails supersede them by flipping the status.
type BooksyStatus string

const (
	BooksyActive    BooksyStatus = "active"
	BooksyChanged   BooksyStatus = "changed"
	BooksyCancelled BooksyStatus = "cancelled"
)

type SyncStatus string

const (
	SyncMapped   SyncStatus = "mapped"
	SyncUnmapped SyncStatus = "unmapped"
	SyncError    SyncStatus = "error"
)

type EmailType string

const (
	EmailNew       EmailType = "new"
	EmailChanged   EmailType = "changed"
	EmailCancelled EmailType = "cancelled"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         UserRole   `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type Stylist struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Bio             *string   `json:"bio" db:"bio"`
	PhotoURL        *string   `json:"photo_url" db:"photo_url"`
	Specialization  *string   `json:"specialization" db:"specialization"`
	ExperienceYears int       `json:"experience_years" db:"experience_years"`
	IsVisible       bool      `json:"is_visible" db:"is_visible"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type Service struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Category        string    `json:"category" db:"category"`
	Name            string    `json:"name" db:"name"`
	NameEN          *string   `json:"name_en" db:"name_en"`
	NameRU          *string   `json:"name_ru" db:"name_ru"`
	Description     *string   `json:"description" db:"description"`
	Price           float64   `json:"price" db:"price"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// WorkingPeriod is one stylist's availability window on one calendar date.
// Times are local wall-clock "HH:MM" strings, no timezone.
type WorkingPeriod struct {
	ID          uuid.UUID `json:"id" db:"id"`
	StylistID   uuid.UUID `json:"stylist_id" db:"stylist_id"`
	Date        time.Time `json:"date" db:"date"`
	StartTime   string    `json:"start_time" db:"start_time"`
	EndTime     string    `json:"end_time" db:"end_time"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TimeBlock is an occupied range that blocks new bookings. StylistID is
// nullable: rows written before per-stylist blocking existed block every
// stylist, and the slot generator must tolerate that shape.
type TimeBlock struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StylistID *uuid.UUID `json:"stylist_id" db:"stylist_id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   time.Time  `json:"end_time" db:"end_time"`
	Source    string     `json:"source" db:"source"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type Booking struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	StylistID   uuid.UUID     `json:"stylist_id" db:"stylist_id"`
	ServiceID   uuid.UUID     `json:"service_id" db:"service_id"`
	ClientName  string        `json:"client_name" db:"client_name"`
	ClientEmail string        `json:"client_email" db:"client_email"`
	ClientPhone string        `json:"client_phone" db:"client_phone"`
	StartTime   time.Time     `json:"start_time" db:"start_time"`
	EndTime     time.Time     `json:"end_time" db:"end_time"`
	Status      BookingStatus `json:"status" db:"status"`
	ClientNotes  *string      `json:"client_notes" db:"client_notes"`
	Language     string       `json:"language" db:"language"`
	ReminderSent bool         `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// BooksyBooking is one row per processed Booksy email (the shadow store).
type BooksyBooking struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	ClientName        string       `json:"client_name" db:"client_name"`
	ClientPhone       *string      `json:"client_phone" db:"client_phone"`
	ClientEmail       *string      `json:"client_email" db:"client_email"`
	ServiceName       string       `json:"service_name" db:"service_name"`
	WorkerName        *string      `json:"worker_name" db:"worker_name"`
	PriceText         *string      `json:"price_text" db:"price_text"`
	StartTime         time.Time    `json:"start_time" db:"start_time"`
	EndTime           time.Time    `json:"end_time" db:"end_time"`
	Status            BooksyStatus `json:"status" db:"status"`
	SyncStatus        SyncStatus   `json:"sync_status" db:"sync_status"`
	StylistID         *uuid.UUID   `json:"stylist_id" db:"stylist_id"`
	EmailMessageID    string       `json:"email_message_id" db:"email_message_id"`
	EmailType         EmailType    `json:"email_type" db:"email_type"`
	PreviousBookingID *uuid.UUID   `json:"previous_booking_id" db:"previous_booking_id"`
	TimeBlockID       *uuid.UUID   `json:"time_block_id" db:"time_block_id"`
	RawEmail          string       `json:"-" db:"raw_email"`
	ParseErrors       *string      `json:"parse_errors" db:"parse_errors"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// BooksyWorkerMapping links a Booksy worker-name string to an internal
// stylist. StylistID stays nil until an admin assigns it.
type BooksyWorkerMapping struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	WorkerName string     `json:"worker_name" db:"worker_name"`
	StylistID  *uuid.UUID `json:"stylist_id" db:"stylist_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// CandidateSlot is a bookable window produced by the slot generator.
// Never persisted; recomputed per request.
type CandidateSlot struct {
	ID          uuid.UUID `json:"id"`
	StylistID   uuid.UUID `json:"stylist_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}

type BlockType string

const (
	BlockHeading BlockType = "heading"
	BlockText    BlockType = "text"
	BlockImage   BlockType = "image"
	BlockList    BlockType = "list"
	BlockEmbed   BlockType = "embed"
)

// ContentBlock is one element of a post body. Closed union: only the
// fields for its Type are set; text fields carry per-language variants.
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Text     *string   `json:"text,omitempty"`
	TextEN   *string   `json:"text_en,omitempty"`
	TextRU   *string   `json:"text_ru,omitempty"`
	Level    *int      `json:"level,omitempty"`
	ImageURL *string   `json:"image_url,omitempty"`
	Alt      *string   `json:"alt,omitempty"`
	Items    []string  `json:"items,omitempty"`
	EmbedURL *string   `json:"embed_url,omitempty"`
}

type Post struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Slug        string         `json:"slug" db:"slug"`
	Title       string         `json:"title" db:"title"`
	TitleEN     *string        `json:"title_en" db:"title_en"`
	TitleRU     *string        `json:"title_ru" db:"title_ru"`
	CoverURL    *string        `json:"cover_url" db:"cover_url"`
	Blocks      []ContentBlock `json:"blocks" db:"-"`
	BlocksJSON  []byte         `json:"-" db:"blocks"`
	IsPublished bool           `json:"is_published" db:"is_published"`
	PublishedAt *time.Time     `json:"published_at" db:"published_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// API request/response structs

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type BookingRequest struct {
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	StylistID   uuid.UUID `json:"stylist_id" binding:"required"`
	Date        string    `json:"date" binding:"required"`
	StartTime   string    `json:"start_time" binding:"required"`
	ClientName  string    `json:"client_name" binding:"required"`
	ClientEmail string    `json:"client_email" binding:"required,email"`
	ClientPhone string    `json:"client_phone" binding:"required"`
	ClientNotes *string   `json:"client_notes"`
}

type WorkingPeriodRequest struct {
	StylistID   uuid.UUID `json:"stylist_id" binding:"required"`
	Date        string    `json:"date" binding:"required"`
	StartTime   string    `json:"start_time" binding:"required"`
	EndTime     string    `json:"end_time" binding:"required"`
	IsAvailable *bool     `json:"is_available"`
}

type WorkerMappingRequest struct {
	StylistID *uuid.UUID `json:"stylist_id"`
}
