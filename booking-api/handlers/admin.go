package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salon-booking/shared/auth"
	"salon-booking/shared/database"
	"salon-booking/shared/i18n"
	"salon-booking/shared/models"
)

func (h *Handler) Login(c *gin.Context) {
	lang := h.language(c)

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	db := database.GetDB()

	var user models.User
	err := db.Get(&user, "SELECT * FROM users WHERE email = $1 AND is_active = true", req.Email)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": i18n.T(lang, "api.auth.invalid_credentials"),
		})
		return
	}
	if err != nil {
		h.internalError(c, "load user", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": i18n.T(lang, "api.auth.invalid_credentials"),
		})
		return
	}

	token, err := auth.GenerateToken(user.ID.String(), string(user.Role), user.Email, h.cfg.JWT.Expiry)
	if err != nil {
		h.internalError(c, "sign token", err)
		return
	}

	if _, err := db.Exec("UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1", user.ID); err != nil {
		log.Printf("last_login update failed for %s: %v", user.Email, err)
	}

	c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: user})
}

func (h *Handler) ListWorkingPeriods(c *gin.Context) {
	db := database.GetDB()

	query := "SELECT * FROM working_periods WHERE 1=1"
	args := []interface{}{}

	if stylistID := c.Query("stylist_id"); stylistID != "" {
		args = append(args, stylistID)
		query += " AND stylist_id = $" + itoa(len(args))
	}
	if from := c.Query("date_from"); from != "" {
		args = append(args, from)
		query += " AND date >= $" + itoa(len(args))
	}
	if to := c.Query("date_to"); to != "" {
		args = append(args, to)
		query += " AND date <= $" + itoa(len(args))
	}
	query += " ORDER BY date, start_time"

	var periods []models.WorkingPeriod
	if err := db.Select(&periods, query, args...); err != nil {
		h.internalError(c, "list working periods", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"working_periods": periods})
}

func (h *Handler) CreateWorkingPeriod(c *gin.Context) {
	lang := h.language(c)

	var req models.WorkingPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil || !clockBefore(req.StartTime, req.EndTime) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": i18n.T(lang, "api.invalid_request"),
		})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	id := uuid.New()
	_, err = database.GetDB().Exec(`
		INSERT INTO working_periods (id, stylist_id, date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, req.StylistID, date.Format("2006-01-02"), req.StartTime, req.EndTime, available)
	if err != nil {
		h.internalError(c, "insert working period", err)
		return
	}

	h.invalidateAvailability(c, date)

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) DeleteWorkingPeriod(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	db := database.GetDB()

	var period models.WorkingPeriod
	err = db.Get(&period, "SELECT * FROM working_periods WHERE id = $1", id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.internalError(c, "load working period", err)
		return
	}

	if _, err := db.Exec("DELETE FROM working_periods WHERE id = $1", id); err != nil {
		h.internalError(c, "delete working period", err)
		return
	}

	h.invalidateAvailability(c, period.Date)

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListBookings is the admin calendar feed.
func (h *Handler) ListBookings(c *gin.Context) {
	db := database.GetDB()

	query := "SELECT * FROM bookings WHERE 1=1"
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		args = append(args, status)
		query += " AND status = $" + itoa(len(args))
	}
	if from := c.Query("date_from"); from != "" {
		args = append(args, from)
		query += " AND start_time >= $" + itoa(len(args))
	}
	if to := c.Query("date_to"); to != "" {
		args = append(args, to)
		query += " AND start_time < $" + itoa(len(args))
	}
	query += " ORDER BY start_time"

	var bookings []models.Booking
	if err := db.Select(&bookings, query, args...); err != nil {
		h.internalError(c, "list bookings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var req struct {
		Status models.BookingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !validBookingStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := database.GetDB().Exec(`
		UPDATE bookings SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		req.Status, id)
	if err != nil {
		h.internalError(c, "update booking status", err)
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// ListBooksyBookings is the review queue for the email-synced shadow store.
// Filter on sync_status=unmapped to see rows waiting for a worker mapping.
func (h *Handler) ListBooksyBookings(c *gin.Context) {
	db := database.GetDB()

	query := "SELECT * FROM booksy_bookings WHERE 1=1"
	args := []interface{}{}

	if syncStatus := c.Query("sync_status"); syncStatus != "" {
		args = append(args, syncStatus)
		query += " AND sync_status = $" + itoa(len(args))
	}
	if status := c.Query("status"); status != "" {
		args = append(args, status)
		query += " AND status = $" + itoa(len(args))
	}
	query += " ORDER BY created_at DESC LIMIT 200"

	var rows []models.BooksyBooking
	if err := db.Select(&rows, query, args...); err != nil {
		h.internalError(c, "list booksy bookings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) ListWorkerMappings(c *gin.Context) {
	var mappings []models.BooksyWorkerMapping
	err := database.GetDB().Select(&mappings,
		"SELECT * FROM booksy_worker_mappings ORDER BY worker_name")
	if err != nil {
		h.internalError(c, "list worker mappings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}

// UpdateWorkerMapping assigns (or clears) the stylist behind a Booksy
// worker name. Existing shadow rows for that worker are re-tagged so the
// review queue drains without replaying emails.
func (h *Handler) UpdateWorkerMapping(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	var req models.WorkerMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	db := database.GetDB()

	var mapping models.BooksyWorkerMapping
	err = db.Get(&mapping, "SELECT * FROM booksy_worker_mappings WHERE id = $1", id)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		h.internalError(c, "load worker mapping", err)
		return
	}

	_, err = db.Exec(`
		UPDATE booksy_worker_mappings
		SET stylist_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		req.StylistID, id)
	if err != nil {
		h.internalError(c, "update worker mapping", err)
		return
	}

	syncStatus := models.SyncUnmapped
	if req.StylistID != nil {
		syncStatus = models.SyncMapped
	}
	_, err = db.Exec(`
		UPDATE booksy_bookings
		SET stylist_id = $1, sync_status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE worker_name = $3 AND sync_status != 'error'`,
		req.StylistID, syncStatus, mapping.WorkerName)
	if err != nil {
		h.internalError(c, "retag booksy bookings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "stylist_id": req.StylistID})
}

func validBookingStatus(s models.BookingStatus) bool {
	switch s {
	case models.BookingPending, models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled:
		return true
	}
	return false
}

// clockBefore compares two "HH:MM" strings; the fixed-width format makes
// lexicographic order correct.
func clockBefore(a, b string) bool {
	return len(a) == 5 && len(b) == 5 && a < b
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
