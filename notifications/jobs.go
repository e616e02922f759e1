package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"salon-booking/shared/cache"
	"salon-booking/shared/config"
	"salon-booking/shared/database"
	"salon-booking/shared/models"
)

const jobQueueKey = "notification_jobs"

type JobType string

const (
	JobEmailConfirmation JobType = "email_confirmation"
	JobBookingReminder   JobType = "booking_reminder"
)

type Job struct {
	Type        JobType   `json:"type"`
	To          string    `json:"to"`
	Language    string    `json:"language"`
	ClientName  string    `json:"client_name"`
	ServiceName string    `json:"service_name"`
	StylistName string    `json:"stylist_name"`
	StartTime   time.Time `json:"start_time"`
}

type JobManager struct {
	cfg    *config.Config
	mailer *EmailClient
	stop   chan struct{}
}

func NewJobManager(cfg *config.Config) *JobManager {
	return &JobManager{
		cfg:    cfg,
		mailer: NewEmailClient(cfg),
		stop:   make(chan struct{}),
	}
}

// Queue pushes a job onto the Redis list consumed by the workers. Losing
// a notification is acceptable; losing the booking is not, so callers
// enqueue after commit and only log enqueue failures.
func Queue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return cache.Client.LPush(ctx, jobQueueKey, data).Err()
}

func (jm *JobManager) Start(workers int) {
	for i := 0; i < workers; i++ {
		go jm.worker(i)
	}
	go jm.reminderScheduler()
	log.Printf("notification job manager started with %d workers", workers)
}

func (jm *JobManager) Stop() {
	close(jm.stop)
}

func (jm *JobManager) worker(id int) {
	ctx := context.Background()
	for {
		select {
		case <-jm.stop:
			return
		default:
		}

		result, err := cache.Client.BRPop(ctx, 2*time.Second, jobQueueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("worker %d: queue read failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("worker %d: dropping malformed job: %v", id, err)
			continue
		}

		if err := jm.execute(job); err != nil {
			log.Printf("worker %d: job %s to %s failed: %v", id, job.Type, job.To, err)
		}
	}
}

func (jm *JobManager) execute(job Job) error {
	var subject, body string
	switch job.Type {
	case JobBookingReminder:
		subject, body = ReminderEmail(job.Language, job.ServiceName, job.StartTime)
	default:
		subject, body = ConfirmationEmail(job.Language, job.ClientName, job.ServiceName, job.StylistName, job.StartTime)
	}
	return jm.mailer.Send(job.To, subject, body)
}

// reminderScheduler queues a reminder for every confirmed booking starting
// within the configured window that has not been reminded yet.
func (jm *JobManager) reminderScheduler() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-jm.stop:
			return
		case <-ticker.C:
			jm.scheduleReminders()
		}
	}
}

func (jm *JobManager) scheduleReminders() {
	ctx := context.Background()
	db := database.GetDB()

	windowEnd := time.Now().Add(time.Duration(jm.cfg.Business.ReminderHours) * time.Hour)

	var bookings []models.Booking
	err := db.SelectContext(ctx, &bookings, `
		SELECT b.* FROM bookings b
		WHERE b.status IN ('pending', 'confirmed')
		  AND b.reminder_sent = false
		  AND b.start_time > NOW() AND b.start_time <= $1`,
		windowEnd)
	if err != nil {
		log.Printf("reminder scheduler: query failed: %v", err)
		return
	}

	for _, booking := range bookings {
		var serviceName string
		if err := db.GetContext(ctx, &serviceName,
			"SELECT name FROM services WHERE id = $1", booking.ServiceID); err != nil {
			log.Printf("reminder scheduler: service lookup failed: %v", err)
			continue
		}

		job := Job{
			Type:        JobBookingReminder,
			To:          booking.ClientEmail,
			Language:    booking.Language,
			ClientName:  booking.ClientName,
			ServiceName: serviceName,
			StartTime:   booking.StartTime,
		}
		if err := Queue(ctx, job); err != nil {
			log.Printf("reminder scheduler: enqueue failed: %v", err)
			continue
		}

		if _, err := db.ExecContext(ctx,
			"UPDATE bookings SET reminder_sent = true, updated_at = CURRENT_TIMESTAMP WHERE id = $1",
			booking.ID); err != nil {
			log.Printf("reminder scheduler: mark failed: %v", err)
		}
	}
}
