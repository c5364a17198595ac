// Command migrate creates or updates the schema without starting the server.
package main

import (
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/config"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/utils/logger"
)

func main() {
	logger.Init(logger.Config{Level: "info", Development: true, Service: "migrate"})

	if err := config.LoadENV(); err != nil {
		log.Warn().Err(err).Msg(".env file not loaded, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	log.Info().
		Strs("tables", []string{
			"users", "courses", "course_instructors", "carts", "cart_items",
			"orders", "order_items", "instructor_shares", "payments", "provider_payments",
			"enrollments", "outbox_events", "cron_job_logs",
		}).
		Msg("All migrations completed successfully")
}
