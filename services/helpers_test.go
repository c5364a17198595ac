package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/coursecheckout-api/database"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/services/razorpay"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testGatewaySecret = "test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "checkout.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeGateway issues sequential intent ids and signs like Razorpay does
type fakeGateway struct {
	mu       sync.Mutex
	requests []IntentRequest
	err      error
}

func (g *fakeGateway) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &Intent{
		ID:          fmt.Sprintf("order_test_%d", len(g.requests)),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}, nil
}

func (g *fakeGateway) VerifySignature(intentID, providerPaymentID, signature string) bool {
	return razorpay.VerifySignature(testGatewaySecret, intentID, providerPaymentID, signature)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type fixture struct {
	db          *gorm.DB
	gateway     *fakeGateway
	enrollments *EnrollmentService
	carts       *CartService
	orders      *OrderService
	payments    *PaymentService
	instructors *InstructorService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakeGateway{}
	catalog := NewGormCatalogStore(db)
	enrollments := NewEnrollmentService(db)
	carts := NewCartService(db, catalog, enrollments)

	return &fixture{
		db:          db,
		gateway:     gateway,
		enrollments: enrollments,
		carts:       carts,
		orders:      NewOrderService(db, catalog, carts, enrollments, "INR"),
		payments:    NewPaymentService(db, gateway, enrollments),
		instructors: NewInstructorService(db),
	}
}

var userSeq int

func (f *fixture) createUser(t *testing.T, role string) model.User {
	t.Helper()
	userSeq++
	user := model.User{
		Email: fmt.Sprintf("user%d@example.com", userSeq),
		Name:  fmt.Sprintf("User %d", userSeq),
		Role:  role,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

type courseSpec struct {
	price      string
	offer      string
	free       bool
	unlisted   bool
	instructor []shareSpec
}

type shareSpec struct {
	instructorID uint
	percent      string
	status       string
}

var courseSeq int

func (f *fixture) createCourse(t *testing.T, spec courseSpec) model.Course {
	t.Helper()
	courseSeq++
	course := model.Course{
		Title:      fmt.Sprintf("Course %d", courseSeq),
		Slug:       fmt.Sprintf("course-%d", courseSeq),
		Price:      dec(orDefault(spec.price, "0")),
		OfferPrice: dec(orDefault(spec.offer, "0")),
		IsFree:     spec.free,
		IsActive:   true,
		Published:  !spec.unlisted,
	}
	require.NoError(t, f.db.Create(&course).Error)

	for _, s := range spec.instructor {
		ci := model.CourseInstructor{
			CourseID:     course.ID,
			InstructorID: s.instructorID,
			Share:        dec(s.percent),
			Status:       orDefault(s.status, model.ShareStatusApproved),
		}
		require.NoError(t, f.db.Create(&ci).Error)
	}
	return course
}

// pay creates an intent for the order and verifies it with a valid signature
func (f *fixture) pay(t *testing.T, orderID, userID uint, providerPaymentID string) (*VerifyPaymentResult, error) {
	t.Helper()
	intent, err := f.payments.CreatePaymentIntent(context.Background(), orderID, userID)
	require.NoError(t, err)
	return f.payments.VerifyPayment(context.Background(), VerifyPaymentRequest{
		UserID:            userID,
		IntentID:          intent.IntentID,
		ProviderPaymentID: providerPaymentID,
		Signature:         razorpay.Sign(testGatewaySecret, intent.IntentID, providerPaymentID),
	})
}

func (f *fixture) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var errGatewayDown = errors.New("connection refused")

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
