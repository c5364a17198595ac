package database

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions. Every step is idempotent.
func (s *Seeder) SeedAll() error {
	log.Info().Msg("[SEED] Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedInstructorShares(); err != nil {
		return fmt.Errorf("failed to seed instructor shares: %w", err)
	}

	log.Info().Msg("[SEED] Database seeding completed successfully")
	return nil
}

// SeedUsers creates the admin from ADMIN_EMAIL plus a demo teacher and buyer
func (s *Seeder) SeedUsers() error {
	users := []model.User{
		{Email: "teacher@demo.local", Name: "Demo Teacher", Role: model.RoleTeacher},
		{Email: "student@demo.local", Name: "Demo Student", Role: model.RoleUser},
	}

	if adminEmail := os.Getenv("ADMIN_EMAIL"); adminEmail != "" {
		users = append(users, model.User{Email: adminEmail, Name: "System Administrator", Role: model.RoleAdmin})
	} else {
		log.Warn().Msg("[SEED] ADMIN_EMAIL not set, skipping admin user creation")
	}

	for _, u := range users {
		user := u
		result := s.db.Where(model.User{Email: user.Email}).Attrs(user).FirstOrCreate(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Info().Str("email", user.Email).Str("role", user.Role).Msg("[SEED] Created user")
		}
	}
	return nil
}

// SeedCourses creates a paid course, a discounted course and a free course
func (s *Seeder) SeedCourses() error {
	courses := []model.Course{
		{
			Title:       "Go for Backend Engineers",
			Slug:        "go-for-backend-engineers",
			Description: "Services, concurrency and testing in Go",
			Price:       decimal.NewFromInt(1000),
			IsActive:    true,
			Published:   true,
		},
		{
			Title:       "PostgreSQL in Production",
			Slug:        "postgresql-in-production",
			Description: "Indexes, transactions and operations",
			Price:       decimal.NewFromInt(1200),
			OfferPrice:  decimal.NewFromInt(800),
			IsActive:    true,
			Published:   true,
		},
		{
			Title:       "Intro to HTTP",
			Slug:        "intro-to-http",
			Description: "A free primer on requests, responses and status codes",
			IsFree:      true,
			IsActive:    true,
			Published:   true,
		},
	}

	for _, c := range courses {
		course := c
		result := s.db.Where(model.Course{Slug: course.Slug}).Attrs(course).FirstOrCreate(&course)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Info().Str("slug", course.Slug).Str("price", course.Price.String()).Msg("[SEED] Created course")
		}
	}
	return nil
}

// SeedInstructorShares gives the demo teacher an approved 60% share of every paid course
func (s *Seeder) SeedInstructorShares() error {
	var teacher model.User
	if err := s.db.Where("email = ?", "teacher@demo.local").First(&teacher).Error; err != nil {
		return fmt.Errorf("demo teacher not found, seed users first: %w", err)
	}

	var courses []model.Course
	if err := s.db.Where("is_free = ?", false).Find(&courses).Error; err != nil {
		return err
	}

	for _, course := range courses {
		share := model.CourseInstructor{
			CourseID:     course.ID,
			InstructorID: teacher.ID,
			Share:        decimal.NewFromInt(60),
			Status:       model.ShareStatusApproved,
		}
		result := s.db.
			Where(model.CourseInstructor{CourseID: course.ID, InstructorID: teacher.ID}).
			Attrs(share).
			FirstOrCreate(&share)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Info().Str("course", course.Slug).Str("share", share.Share.String()).Msg("[SEED] Approved instructor share")
		}
	}
	return nil
}

// RunSeeds migrates the schema and seeds demo data
func RunSeeds(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	return NewSeeder(db).SeedAll()
}
