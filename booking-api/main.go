package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"salon-booking/booking-api/routes"
	"salon-booking/notifications"
	"salon-booking/shared/auth"
	"salon-booking/shared/cache"
	"salon-booking/shared/config"
	"salon-booking/shared/database"
	"salon-booking/shared/i18n"
)

func main() {
	cfg := config.Load()

	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	if err := cache.Initialize(cfg); err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer cache.Close()

	auth.Initialize(cfg)

	if err := i18n.Initialize(cfg); err != nil {
		log.Fatalf("i18n: %v", err)
	}

	jobs := notifications.NewJobManager(cfg)
	jobs.Start(2)
	defer jobs.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	routes.Setup(r, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("booking API listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
