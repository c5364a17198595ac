package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/services/events"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxCoursesPerOrder bounds the number of courses in a single order
const MaxCoursesPerOrder = 50

var tracer = otel.Tracer("github.com/sahilchouksey/coursecheckout-api/services")

// OrderService creates and reads orders
type OrderService struct {
	db          *gorm.DB
	catalog     CatalogStore
	carts       CartStore
	enrollments *EnrollmentService
	currency    string
}

// NewOrderService creates a new order service
func NewOrderService(db *gorm.DB, catalog CatalogStore, carts CartStore, enrollments *EnrollmentService, currency string) *OrderService {
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{
		db:          db,
		catalog:     catalog,
		carts:       carts,
		enrollments: enrollments,
		currency:    currency,
	}
}

// CreateOrderRequest selects the courses to buy: explicit ids, or the user's cart
type CreateOrderRequest struct {
	UserID    uint
	CourseIDs []uint
	FromCart  bool
}

// CreateOrderResult is the outcome of CreateOrder
type CreateOrderResult struct {
	Order             *model.Order   `json:"order"`
	RequiresPayment   bool           `json:"requires_payment"`
	Payment           *model.Payment `json:"payment,omitempty"`
	EnrolledCourseIDs []uint         `json:"enrolled_course_ids,omitempty"`
}

// OrderDetails is an order with its derived payment state
type OrderDetails struct {
	Order           *model.Order `json:"order"`
	RequiresPayment bool         `json:"requires_payment"`
}

func (r CreateOrderRequest) validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if r.FromCart && len(r.CourseIDs) > 0 {
		return fmt.Errorf("%w: course ids and cart checkout are exclusive", ErrInvalidInput)
	}
	if !r.FromCart && len(r.CourseIDs) == 0 {
		return fmt.Errorf("%w: at least one course is required", ErrInvalidInput)
	}
	if len(r.CourseIDs) > MaxCoursesPerOrder {
		return fmt.Errorf("%w: at most %d courses per order", ErrInvalidInput, MaxCoursesPerOrder)
	}
	for _, id := range r.CourseIDs {
		if id == 0 {
			return fmt.Errorf("%w: invalid course id", ErrInvalidInput)
		}
	}
	return nil
}

// CreateOrder prices the selected courses, snapshots instructor shares and
// persists the order in one transaction. A zero total settles immediately with
// a COMPLETED payment and ACTIVE enrollments; a positive total waits for a
// verified payment.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	start := time.Now()

	result, err := s.createOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	path := "paid"
	if !result.RequiresPayment {
		path = "free"
	}
	metrics.OrdersCreated.WithLabelValues(path).Inc()
	metrics.EnrollmentsActivated.Add(float64(len(result.EnrolledCourseIDs)))
	metrics.OrderCreationTime.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int64("order.id", int64(result.Order.ID)),
		attribute.String("order.total", result.Order.TotalAmount.String()),
		attribute.Bool("order.free", !result.RequiresPayment),
	)
	return result, nil
}

func (s *OrderService) createOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var cart *model.Cart
	courseIDs := dedupeIDs(req.CourseIDs)
	if req.FromCart {
		var err error
		cart, err = s.carts.GetCart(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if cart.ID == 0 || len(cart.Items) == 0 {
			return nil, ErrCartEmpty
		}
		courseIDs = dedupeIDs(cart.CourseIDs())
		if len(courseIDs) > MaxCoursesPerOrder {
			return nil, fmt.Errorf("%w: at most %d courses per order", ErrInvalidInput, MaxCoursesPerOrder)
		}
	}

	owned, err := s.enrollments.ActiveCourseIDs(ctx, s.db, req.UserID, courseIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, fmt.Errorf("%w in course %d", ErrAlreadyEnrolled, owned[0])
	}

	courses, err := s.catalog.GetCoursesByIDs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	if err := ensurePurchasable(courseIDs, courses); err != nil {
		return nil, err
	}

	lines, total, err := priceCourses(courses)
	if err != nil {
		return nil, err
	}
	free := total.IsZero()

	order := &model.Order{
		UserID:      req.UserID,
		TotalAmount: total,
		Currency:    s.currency,
	}
	result := &CreateOrderResult{Order: order, RequiresPayment: !free}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range lines {
			item := model.OrderItem{
				OrderID:  order.ID,
				CourseID: lines[i].course.ID,
				Amount:   lines[i].amount,
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			if len(lines[i].shares) > 0 {
				for j := range lines[i].shares {
					lines[i].shares[j].OrderItemID = item.ID
				}
				if err := tx.Create(&lines[i].shares).Error; err != nil {
					return fmt.Errorf("failed to create instructor shares: %w", err)
				}
			}
			item.Shares = lines[i].shares
			order.Items = append(order.Items, item)
		}

		if free {
			payment, enrolled, err := s.settleFreeOrder(ctx, tx, order, courseIDs)
			if err != nil {
				return err
			}
			result.Payment = payment
			result.EnrolledCourseIDs = enrolled
		}

		if cart != nil {
			if err := s.carts.ClearCart(ctx, tx, cart.ID); err != nil {
				return err
			}
		}

		return events.Record(tx, events.OrderCreated, order.ID, events.OrderCreatedPayload{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount.StringFixed(2),
			Currency:    order.Currency,
			CourseIDs:   courseIDs,
			Free:        free,
		})
	})
	if err != nil {
		if isDuplicateKey(err) && !errors.Is(err, ErrAlreadyEnrolled) {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyEnrolled, err)
		}
		return nil, err
	}

	log.Info().
		Uint("order_id", order.ID).
		Uint("user_id", order.UserID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Bool("free", free).
		Msg("[ORDER] order created")
	return result, nil
}

// settleFreeOrder records the zero-amount payment and activates enrollments
func (s *OrderService) settleFreeOrder(ctx context.Context, tx *gorm.DB, order *model.Order, courseIDs []uint) (*model.Payment, []uint, error) {
	payment := &model.Payment{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   decimal.Zero,
		Currency: order.Currency,
		TxnID:    "free_" + uuid.NewString(),
		Provider: model.PaymentProviderFree,
		Status:   model.PaymentStatusCompleted,
	}
	if err := tx.Create(payment).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create payment: %w", err)
	}

	enrolled, err := s.enrollments.Activate(ctx, tx, order.UserID, order.ID, courseIDs, false)
	if err != nil {
		return nil, nil, err
	}

	if err := events.Record(tx, events.PaymentCompleted, payment.ID, events.PaymentPayload{
		PaymentID: payment.ID,
		OrderID:   order.ID,
		UserID:    order.UserID,
		TxnID:     payment.TxnID,
		Amount:    payment.Amount.StringFixed(2),
		Status:    payment.Status,
	}); err != nil {
		return nil, nil, err
	}
	if err := events.Record(tx, events.EnrollmentActivated, order.ID, events.EnrollmentPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		CourseIDs: enrolled,
	}); err != nil {
		return nil, nil, err
	}

	order.Payments = []model.Payment{*payment}
	return payment, enrolled, nil
}

// ensurePurchasable checks every requested course was found and can be sold
func ensurePurchasable(ids []uint, courses []model.Course) error {
	byID := make(map[uint]model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || !c.Purchasable() {
			return fmt.Errorf("%w: %d", ErrCourseUnavailable, id)
		}
	}
	return nil
}

// GetOrder returns the user's order with items and payments. Orders of other
// users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uint) (*OrderDetails, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	return &OrderDetails{Order: &order, RequiresPayment: requiresPayment(&order)}, nil
}

// ListOrders returns a page of the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID uint, page, limit int) ([]OrderDetails, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	details := make([]OrderDetails, 0, len(orders))
	for i := range orders {
		details = append(details, OrderDetails{Order: &orders[i], RequiresPayment: requiresPayment(&orders[i])})
	}
	return details, total, nil
}

// requiresPayment is true for a positive total with no COMPLETED payment
func requiresPayment(order *model.Order) bool {
	if !order.TotalAmount.IsPositive() {
		return false
	}
	for _, p := range order.Payments {
		if p.Status == model.PaymentStatusCompleted {
			return false
		}
	}
	return true
}
