package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-booking/booking-api/handlers"
	"salon-booking/booking-api/middleware"
	"salon-booking/shared/config"
)

func Setup(r *gin.Engine, cfg *config.Config) {
	h := handlers.NewHandler(cfg)

	r.Use(middleware.CORS(cfg))
	r.Use(middleware.RateLimit(cfg))
	r.Use(middleware.LanguageDetector(cfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/services", h.ListServices)
		api.GET("/stylists", h.ListStylists)
		api.GET("/availability", h.GetAvailability)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:slug", h.GetPost)
	}

	admin := api.Group("/admin")
	admin.POST("/login", h.Login)

	protected := admin.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RequireRole("ADMIN"))
	{
		protected.GET("/working-periods", h.ListWorkingPeriods)
		protected.POST("/working-periods", h.CreateWorkingPeriod)
		protected.DELETE("/working-periods/:id", h.DeleteWorkingPeriod)

		protected.GET("/bookings", h.ListBookings)
		protected.PUT("/bookings/:id/status", h.UpdateBookingStatus)

		protected.GET("/booksy/bookings", h.ListBooksyBookings)
		protected.GET("/booksy/workers", h.ListWorkerMappings)
		protected.PUT("/booksy/workers/:id", h.UpdateWorkerMapping)
	}
}
