package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/utils/logger"
)

func main() {
	logger.Init(logger.Config{Level: "info", Development: true, Service: "seed"})

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Course Checkout - Database Seeding")
	fmt.Println(separator)

	if err := database.RunSeeds(store.DB()); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println("Demo accounts: teacher@demo.local, student@demo.local")
	fmt.Println("Admin account is created from ADMIN_EMAIL when set.")
	fmt.Println("Mint a token with: go run ./cmd/devtoken -email student@demo.local")
	fmt.Println(separator)
}
