package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"salon-booking/booking-api/slots"
	"salon-booking/notifications"
	"salon-booking/shared/cache"
	"salon-booking/shared/config"
	"salon-booking/shared/database"
	"salon-booking/shared/i18n"
	"salon-booking/shared/models"
)

type Handler struct {
	cfg *config.Config
}

func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) language(c *gin.Context) string {
	return c.GetString("language")
}

// salonLocation is the wall-clock zone of the salon; working periods and
// booking times are interpreted in it.
func salonLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.Local
	}
	return loc
}

func (h *Handler) ListServices(c *gin.Context) {
	db := database.GetDB()

	var services []models.Service
	err := db.Select(&services, `
		SELECT * FROM services WHERE is_active = true
		ORDER BY category, name`)
	if err != nil {
		h.internalError(c, "list services", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (h *Handler) ListStylists(c *gin.Context) {
	db := database.GetDB()

	var stylists []models.Stylist
	err := db.Select(&stylists, `
		SELECT * FROM stylists WHERE is_visible = true
		ORDER BY created_at`)
	if err != nil {
		h.internalError(c, "list stylists", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stylists": stylists})
}

// GetAvailability returns the candidate slots for one service on one day.
// Results are cached briefly in Redis; booking writes invalidate the day.
func (h *Handler) GetAvailability(c *gin.Context) {
	lang := h.language(c)

	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), salonLocation())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	cacheKey := "availability:" + serviceID.String() + ":" + date.Format("2006-01-02")
	var cached []models.CandidateSlot
	if err := cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"slots": cached})
		return
	}

	db := database.GetDB()

	var service models.Service
	err = db.Get(&service, "SELECT * FROM services WHERE id = $1 AND is_active = true", serviceID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "service_not_found",
			"message": i18n.T(lang, "api.service.not_found"),
		})
		return
	}
	if err != nil {
		h.internalError(c, "load service", err)
		return
	}

	var stylistIDs []uuid.UUID
	err = db.Select(&stylistIDs, `
		SELECT ss.stylist_id FROM stylist_services ss
		JOIN stylists s ON s.id = ss.stylist_id
		WHERE ss.service_id = $1 AND s.is_visible = true
		ORDER BY s.created_at`, serviceID)
	if err != nil {
		h.internalError(c, "load qualified stylists", err)
		return
	}
	if len(stylistIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"slots": []models.CandidateSlot{}})
		return
	}

	periods, blocks, err := h.loadDayInputs(date, stylistIDs)
	if err != nil {
		h.internalError(c, "load day inputs", err)
		return
	}

	result := slots.Generate(date, periods, blocks, service.DurationMinutes)

	if err := cache.Set(c.Request.Context(), cacheKey, result, h.cfg.Business.AvailabilityCache); err != nil {
		log.Printf("availability cache write failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"slots": result})
}

// loadDayInputs fetches the working periods and busy blocks feeding the
// slot generator. Block rows without a stylist id are included on purpose.
func (h *Handler) loadDayInputs(date time.Time, stylistIDs []uuid.UUID) ([]models.WorkingPeriod, []models.TimeBlock, error) {
	db := database.GetDB()
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	query, args, err := sqlx.In(`
		SELECT * FROM working_periods
		WHERE date = ? AND is_available = true AND stylist_id IN (?)`,
		date.Format("2006-01-02"), stylistIDs)
	if err != nil {
		return nil, nil, err
	}
	var periods []models.WorkingPeriod
	if err := db.Select(&periods, db.Rebind(query), args...); err != nil {
		return nil, nil, err
	}

	query, args, err = sqlx.In(`
		SELECT * FROM time_blocks
		WHERE start_time < ? AND end_time > ?
		  AND (stylist_id IS NULL OR stylist_id IN (?))`,
		dayEnd, dayStart, stylistIDs)
	if err != nil {
		return nil, nil, err
	}
	var blocks []models.TimeBlock
	if err := db.Select(&blocks, db.Rebind(query), args...); err != nil {
		return nil, nil, err
	}

	return periods, blocks, nil
}

func (h *Handler) CreateBooking(c *gin.Context) {
	lang := h.language(c)

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.StartTime, salonLocation())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	db := database.GetDB()

	var service models.Service
	err = db.Get(&service, "SELECT * FROM services WHERE id = $1 AND is_active = true", req.ServiceID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "service_not_found",
			"message": i18n.T(lang, "api.service.not_found"),
		})
		return
	}
	if err != nil {
		h.internalError(c, "load service", err)
		return
	}

	var stylist models.Stylist
	err = db.Get(&stylist, "SELECT * FROM stylists WHERE id = $1", req.StylistID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "stylist_not_found",
			"message": i18n.T(lang, "api.stylist.not_found"),
		})
		return
	}
	if err != nil {
		h.internalError(c, "load stylist", err)
		return
	}

	end := start.Add(time.Duration(service.DurationMinutes) * time.Minute)

	tx, err := db.Beginx()
	if err != nil {
		h.internalError(c, "begin tx", err)
		return
	}
	defer tx.Rollback()

	// Re-check freedom inside the transaction; the availability response
	// the client saw may be stale.
	var conflicts int
	err = tx.Get(&conflicts, `
		SELECT COUNT(*) FROM time_blocks
		WHERE (stylist_id IS NULL OR stylist_id = $1)
		  AND start_time < $2 AND end_time > $3`,
		req.StylistID, end, start)
	if err != nil {
		h.internalError(c, "conflict check", err)
		return
	}
	if conflicts > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "slot_taken",
			"message": i18n.T(lang, "api.booking.slot_taken"),
		})
		return
	}

	bookingID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, stylist_id, service_id, client_name, client_email,
			client_phone, start_time, end_time, status, client_notes, language
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		bookingID, req.StylistID, req.ServiceID, req.ClientName, req.ClientEmail,
		req.ClientPhone, start, end, models.BookingPending, req.ClientNotes, lang)
	if err != nil {
		h.internalError(c, "insert booking", err)
		return
	}

	_, err = tx.Exec(`
		INSERT INTO time_blocks (id, stylist_id, start_time, end_time, source)
		VALUES ($1, $2, $3, $4, 'booking')`,
		uuid.New(), req.StylistID, start, end)
	if err != nil {
		h.internalError(c, "insert time block", err)
		return
	}

	if err := tx.Commit(); err != nil {
		h.internalError(c, "commit booking", err)
		return
	}

	h.invalidateAvailability(c, start)

	job := notifications.Job{
		Type:        notifications.JobEmailConfirmation,
		To:          req.ClientEmail,
		Language:    lang,
		ClientName:  req.ClientName,
		ServiceName: service.Name,
		StylistName: stylist.Name,
		StartTime:   start,
	}
	if err := notifications.Queue(c.Request.Context(), job); err != nil {
		log.Printf("confirmation enqueue failed for booking %s: %v", bookingID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking_id": bookingID,
		"message":    i18n.T(lang, "api.booking.created"),
	})
}

// invalidateAvailability drops every cached availability response for the
// booked day; the slot sets of all services share the same time blocks.
func (h *Handler) invalidateAvailability(c *gin.Context, start time.Time) {
	pattern := "availability:*:" + start.In(salonLocation()).Format("2006-01-02")
	keys, err := cache.Client.Keys(c.Request.Context(), pattern).Result()
	if err != nil {
		log.Printf("availability cache scan failed: %v", err)
		return
	}
	if err := cache.Delete(c.Request.Context(), keys...); err != nil {
		log.Printf("availability cache invalidation failed: %v", err)
	}
}

func (h *Handler) ListPosts(c *gin.Context) {
	db := database.GetDB()

	var posts []models.Post
	err := db.Select(&posts, `
		SELECT * FROM posts WHERE is_published = true
		ORDER BY published_at DESC`)
	if err != nil {
		h.internalError(c, "list posts", err)
		return
	}

	for i := range posts {
		if err := json.Unmarshal(posts[i].BlocksJSON, &posts[i].Blocks); err != nil {
			log.Printf("post %s: malformed content blocks: %v", posts[i].Slug, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *Handler) GetPost(c *gin.Context) {
	db := database.GetDB()

	var post models.Post
	err := db.Get(&post, "SELECT * FROM posts WHERE slug = $1 AND is_published = true", c.Param("slug"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	if err != nil {
		h.internalError(c, "load post", err)
		return
	}

	if err := json.Unmarshal(post.BlocksJSON, &post.Blocks); err != nil {
		log.Printf("post %s: malformed content blocks: %v", post.Slug, err)
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	log.Printf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": i18n.T(h.language(c), "api.internal_error"),
	})
}
