package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/config"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the database handle the application runs on
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	DB() *gorm.DB
}

type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore wraps an open connection
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    true,
		TranslateError: true, // unique violations become gorm.ErrDuplicatedKey
	})
	if err != nil {
		log.Error().Err(err).Msg("Unable to connect to PostgreSQL with GORM")
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Str("host", getEnv.DB_HOST).Str("db", getEnv.DB_NAME).Msg("Successfully connected to PostgreSQL Database with GORM")

	return &GORMStore{db: db}, nil
}

// Init runs the migrations
func (s *GORMStore) Init() error {
	log.Info().Msg("Running GORM AutoMigrate for all models...")
	if err := Migrate(s.db); err != nil {
		log.Error().Err(err).Msg("Error running AutoMigrate")
		return err
	}
	log.Info().Msg("GORM AutoMigrate completed successfully!")
	return nil
}

// Migrate creates or updates all tables and the indexes AutoMigrate cannot express
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		// Users & catalog
		&model.User{},
		&model.Course{},
		&model.CourseInstructor{},
		&model.Cart{},
		&model.CartItem{},

		// Orders, payments, enrollments
		&model.Order{},
		&model.OrderItem{},
		&model.InstructorShare{},
		&model.Payment{},
		&model.ProviderPayment{},
		&model.Enrollment{},

		// Infrastructure
		&model.OutboxEvent{},
		&model.CronJobLog{},
	)
	if err != nil {
		return err
	}

	// A user holds at most one live enrollment per course. REVOKED rows are
	// kept for history and do not count.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active_user_course
		ON enrollments (user_id, course_id)
		WHERE status IN ('ACTIVE', 'COMPLETED')`).Error
	if err != nil {
		return fmt.Errorf("failed to create enrollment uniqueness index: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Info().Msg("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM DB instance for use in services and handlers
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
