package services

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateOrderFreeCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := f.createUser(t, model.RoleTeacher)
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{price: "500", free: true, instructor: []shareSpec{{instructorID: teacher.ID, percent: "70"}}})

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)

	assert.False(t, result.RequiresPayment)
	assertDecimal(t, "0", result.Order.TotalAmount)
	assert.Equal(t, []uint{course.ID}, result.EnrolledCourseIDs)
	assert.Zero(t, f.gateway.calls(), "free orders never reach the gateway")

	require.NotNil(t, result.Payment)
	assert.Equal(t, model.PaymentStatusCompleted, result.Payment.Status)
	assert.True(t, strings.HasPrefix(result.Payment.TxnID, "free_"))

	assert.EqualValues(t, 1, f.count(t, &model.Payment{}, "order_id = ? AND status = ?", result.Order.ID, model.PaymentStatusCompleted))
	assert.EqualValues(t, 1, f.count(t, &model.Enrollment{}, "user_id = ? AND course_id = ? AND status = ?", student.ID, course.ID, model.EnrollmentStatusActive))

	var shares []model.InstructorShare
	require.NoError(t, f.db.Find(&shares).Error)
	require.Len(t, shares, 1)
	assertDecimal(t, "0", shares[0].ShareAmount)
	assertDecimal(t, "70", shares[0].SharePercent)

	details, err := f.orders.GetOrder(ctx, result.Order.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, details.RequiresPayment)
}

func TestCreateOrderPaidCourseWaitsForPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{price: "1200"})

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)

	assert.True(t, result.RequiresPayment)
	assert.Nil(t, result.Payment)
	assertDecimal(t, "1200", result.Order.TotalAmount)
	assert.Zero(t, f.count(t, &model.Enrollment{}, ""))
	assert.Zero(t, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.OutboxEvent{}, "event_type = ?", "order.created"))

	details, err := f.orders.GetOrder(ctx, result.Order.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, details.RequiresPayment)
	require.Len(t, details.Order.Items, 1)
	assert.Equal(t, course.ID, details.Order.Items[0].CourseID)
}

func TestCreateOrderOfferPriceAndShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createUser(t, model.RoleTeacher)
	assistant := f.createUser(t, model.RoleTeacher)
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{
		price: "1000",
		offer: "800",
		instructor: []shareSpec{
			{instructorID: lead.ID, percent: "60"},
			{instructorID: assistant.ID, percent: "40"},
		},
	})

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)

	require.Len(t, result.Order.Items, 1)
	item := result.Order.Items[0]
	assertDecimal(t, "800", item.Amount)
	assertDecimal(t, "800", result.Order.TotalAmount)

	var shares []model.InstructorShare
	require.NoError(t, f.db.Where("order_item_id = ?", item.ID).Order("id ASC").Find(&shares).Error)
	require.Len(t, shares, 2)
	assert.Equal(t, lead.ID, shares[0].InstructorID)
	assertDecimal(t, "480", shares[0].ShareAmount)
	assert.Equal(t, assistant.ID, shares[1].InstructorID)
	assertDecimal(t, "320", shares[1].ShareAmount)
}

func TestCreateOrderMixedCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	free := f.createCourse(t, courseSpec{price: "300", free: true})
	paid := f.createCourse(t, courseSpec{price: "450.50"})

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{free.ID, paid.ID, paid.ID}})
	require.NoError(t, err)

	assert.True(t, result.RequiresPayment)
	assertDecimal(t, "450.50", result.Order.TotalAmount)
	assert.Len(t, result.Order.Items, 2, "duplicate ids collapse into one line")
	assert.Zero(t, f.count(t, &model.Enrollment{}, ""), "free lines in a paid order wait for the payment")
}

func TestCreateOrderAlreadyEnrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{price: "0", free: true})

	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	ordersBefore := f.count(t, &model.Order{}, "")

	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, CategoryConflict, CategoryOf(err))
	assert.Equal(t, ordersBefore, f.count(t, &model.Order{}, ""))
}

func TestCreateOrderRevokedEnrollmentCanRebuy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{free: true})

	first, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.Enrollment{}).
		Where("order_id = ?", first.Order.ID).
		Update("status", model.EnrollmentStatusRevoked).Error)

	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.count(t, &model.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
}

func TestCreateOrderFromEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)

	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, FromCart: true})
	require.ErrorIs(t, err, ErrCartEmpty)
	assert.Equal(t, CategoryValidation, CategoryOf(err))

	// a cart that exists but holds nothing behaves the same
	course := f.createCourse(t, courseSpec{price: "99"})
	_, err = f.carts.AddItem(ctx, student.ID, course.ID)
	require.NoError(t, err)
	_, err = f.carts.RemoveItem(ctx, student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, FromCart: true})
	require.ErrorIs(t, err, ErrCartEmpty)
	assert.Zero(t, f.count(t, &model.Order{}, ""))
}

func TestCreateOrderFromCartClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	a := f.createCourse(t, courseSpec{price: "100"})
	b := f.createCourse(t, courseSpec{price: "250", offer: "200"})

	_, err := f.carts.AddItem(ctx, student.ID, a.ID)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, student.ID, b.ID)
	require.NoError(t, err)

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, FromCart: true})
	require.NoError(t, err)
	assertDecimal(t, "300", result.Order.TotalAmount)
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, a.ID, result.Order.Items[0].CourseID)
	assert.Equal(t, b.ID, result.Order.Items[1].CourseID)

	cart, err := f.carts.GetCart(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreateOrderCourseUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	listed := f.createCourse(t, courseSpec{price: "100"})
	unlisted := f.createCourse(t, courseSpec{price: "100", unlisted: true})

	tests := []struct {
		name      string
		courseIDs []uint
	}{
		{"unpublished course", []uint{listed.ID, unlisted.ID}},
		{"unknown course", []uint{listed.ID, 99999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: tt.courseIDs})
			require.ErrorIs(t, err, ErrCourseUnavailable)
			assert.Zero(t, f.count(t, &model.Order{}, ""))
		})
	}
}

func TestCreateOrderShareLimitExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createUser(t, model.RoleTeacher)
	b := f.createUser(t, model.RoleTeacher)
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{
		price: "100",
		instructor: []shareSpec{
			{instructorID: a.ID, percent: "70"},
			{instructorID: b.ID, percent: "40"},
		},
	})

	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.ErrorIs(t, err, ErrShareLimitExceeded)
	assert.Zero(t, f.count(t, &model.Order{}, ""))
	assert.Zero(t, f.count(t, &model.OrderItem{}, ""))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"missing user", CreateOrderRequest{CourseIDs: []uint{1}}},
		{"no courses", CreateOrderRequest{UserID: 1}},
		{"courses and cart", CreateOrderRequest{UserID: 1, CourseIDs: []uint{1}, FromCart: true}},
		{"zero course id", CreateOrderRequest{UserID: 1, CourseIDs: []uint{0}}},
		{"too many courses", CreateOrderRequest{UserID: 1, CourseIDs: make([]uint, MaxCoursesPerOrder+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tt.req)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, CategoryValidation, CategoryOf(err))
		})
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, model.RoleUser)
	other := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{price: "100"})

	result, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: owner.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, result.Order.ID, other.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.orders.GetOrder(ctx, result.Order.ID+100, owner.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	for i := 0; i < 3; i++ {
		course := f.createCourse(t, courseSpec{price: "10"})
		_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
		require.NoError(t, err)
	}

	page, total, err := f.orders.ListOrders(ctx, student.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].Order.ID, page[1].Order.ID)
	assert.True(t, page[0].RequiresPayment)

	rest, _, err := f.orders.ListOrders(ctx, student.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

// enrollingCatalog commits an enrollment for the buyer right after the order
// service's ownership check, as a concurrent checkout would
type enrollingCatalog struct {
	CatalogStore
	db       *gorm.DB
	userID   uint
	courseID uint
}

func (c *enrollingCatalog) GetCoursesByIDs(ctx context.Context, ids []uint) ([]model.Course, error) {
	err := c.db.Create(&model.Enrollment{
		UserID:   c.userID,
		CourseID: c.courseID,
		Status:   model.EnrollmentStatusActive,
	}).Error
	if err != nil {
		return nil, err
	}
	return c.CatalogStore.GetCoursesByIDs(ctx, ids)
}

func TestCreateOrderFreeCourseConcurrentEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{free: true})

	catalog := &enrollingCatalog{
		CatalogStore: NewGormCatalogStore(f.db),
		db:           f.db,
		userID:       student.ID,
		courseID:     course.ID,
	}
	orders := NewOrderService(f.db, catalog, f.carts, f.enrollments, "INR")

	_, err := orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, CategoryConflict, CategoryOf(err))

	assert.Zero(t, f.count(t, &model.Order{}, ""))
	assert.Zero(t, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
}

func TestCreateOrderFromCartRespectsCourseLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)

	for i := 0; i < MaxCoursesPerOrder+1; i++ {
		course := f.createCourse(t, courseSpec{price: "10"})
		_, err := f.carts.AddItem(ctx, student.ID, course.ID)
		require.NoError(t, err)
	}

	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, FromCart: true})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.count(t, &model.Order{}, ""))

	cart, err := f.carts.GetCart(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, MaxCoursesPerOrder+1, "a rejected checkout leaves the cart alone")
}

func TestEnrollmentMetricCountsCommittedOrdersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createUser(t, model.RoleUser)
	course := f.createCourse(t, courseSpec{free: true})

	before := testutil.ToFloat64(metrics.EnrollmentsActivated)

	// events are written after the enrollments, so losing the outbox table
	// rolls back enrollments that were already inserted
	require.NoError(t, f.db.Migrator().DropTable(&model.OutboxEvent{}))
	_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.Error(t, err)
	assert.Zero(t, f.count(t, &model.Enrollment{}, ""))
	assert.Equal(t, before, testutil.ToFloat64(metrics.EnrollmentsActivated))

	require.NoError(t, f.db.AutoMigrate(&model.OutboxEvent{}))
	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{UserID: student.ID, CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EnrollmentsActivated))
}
