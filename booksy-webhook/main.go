package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"salon-booking/booksy-webhook/handlers"
	"salon-booking/booksy-webhook/reconciler"
	"salon-booking/shared/config"
	"salon-booking/shared/database"
)

func main() {
	cfg := config.Load()

	if err := database.Initialize(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	store := reconciler.NewPostgresStore(database.GetDB())
	handler := handlers.NewWebhookHandler(cfg, reconciler.New(store))

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Any, not POST: the handler itself answers 405 for other methods.
	r.Any("/webhooks/booksy", handler.HandleBooksyEmail)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "booksy-webhook",
			"status":  "healthy",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	log.Printf("Booksy webhook service starting on port :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
