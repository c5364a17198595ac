// Command devtoken mints an access token for an existing user. Sign-in is
// handled outside this service, so this is how local environments get a token.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/config"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/auth"
	"github.com/sahilchouksey/coursecheckout-api/utils/logger"
	"github.com/sahilchouksey/coursecheckout-api/utils/validation"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "email of the user to mint a token for")
	userID := flag.Uint("id", 0, "id of the user to mint a token for")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger.Init(logger.Config{Level: "warn", Development: true, Service: "devtoken"})
	_ = godotenv.Load()

	if (*email == "") == (*userID == 0) {
		fmt.Fprintln(os.Stderr, "usage: devtoken -email <email> | -id <user id> [-expiry 24h]")
		os.Exit(2)
	}
	if *email != "" && !validation.ValidateEmail(*email) {
		log.Fatal().Str("email", *email).Msg("Invalid email")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if env.IsProduction() {
		log.Fatal().Msg("devtoken must not be used in production")
	}
	if env.JWT_SECRET == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	var user model.User
	query := store.DB()
	if *email != "" {
		query = query.Where("email = ?", *email)
	} else {
		query = query.Where("id = ?", *userID)
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal().Msg("User not found")
		}
		log.Fatal().Err(err).Msg("Failed to load user")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: *expiry,
		Issuer: env.JWT_ISSUER,
	})
	token, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Println(token)
}
