package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/api"
	"github.com/sahilchouksey/coursecheckout-api/config"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/router"
	"github.com/sahilchouksey/coursecheckout-api/services/cron"
	"github.com/sahilchouksey/coursecheckout-api/services/events"
	"github.com/sahilchouksey/coursecheckout-api/utils/logger"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
	"github.com/sahilchouksey/coursecheckout-api/utils/tracing"
)

const serviceName = "coursecheckout-api"

func SetupAndRunServer() error {

	// Load ENV. A missing .env file is fine when the variables come from the environment.
	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded:", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Level:       getEnv.LOG_LEVEL,
		Development: !getEnv.IsProduction(),
		Service:     serviceName,
	})

	shutdownTracing, err := tracing.InitTracerProvider(serviceName, getEnv.JAEGER_ENDPOINT)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without it")
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Error().Msg("Check whether Postgres is running (make docker-up or make db-up)")
		return err
	}

	if err := store.Init(); err != nil {
		log.Error().Msg("Failed to initialize database tables")
		return err
	}

	metrics.Register()

	// Outbox events go to Kafka when brokers are configured, otherwise to the log
	var publisher events.Publisher
	if len(getEnv.KAFKA_BROKERS) > 0 {
		publisher = events.NewKafkaPublisher(getEnv.KAFKA_BROKERS, getEnv.KAFKA_EVENTS_TOPIC)
		log.Info().Strs("brokers", getEnv.KAFKA_BROKERS).Str("topic", getEnv.KAFKA_EVENTS_TOPIC).Msg("Publishing checkout events to Kafka")
	} else {
		publisher = events.NewLogPublisher(logger.Component("events"))
		log.Warn().Msg("KAFKA_BROKERS not set, checkout events will only be logged")
	}
	relay := events.NewRelay(store.DB(), publisher, 0)

	svc := router.NewServices(store.DB(), router.NewRazorpayGateway(getEnv), getEnv.PAYMENT_CURRENCY)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.DB(), cron.Config{
			Relay:             relay,
			Payments:          svc.Payments,
			StalePaymentAfter: getEnv.STALE_PAYMENT_AFTER,
		})
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn().Err(err).Msg("Failed to start cron jobs")
			cronManager = nil
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	closeRoutes, err := router.SetupRoutes(app, store, svc, getEnv)
	if err != nil {
		return err
	}

	// Stop cron jobs, flush events and close DB on the way out
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		closeRoutes()
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event publisher")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("Shutting down API server")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down API server")
		}
	}()

	return server.Run()
}
