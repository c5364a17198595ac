package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/services/events"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentService creates gateway payment intents and verifies confirmations
type PaymentService struct {
	db          *gorm.DB
	gateway     PaymentGateway
	enrollments *EnrollmentService
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, enrollments *EnrollmentService) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, enrollments: enrollments}
}

// PaymentIntentResult is what the client needs to open the gateway checkout
type PaymentIntentResult struct {
	PaymentID   uint            `json:"payment_id"`
	OrderID     uint            `json:"order_id"`
	IntentID    string          `json:"intent_id"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
}

// VerifyPaymentRequest is the confirmation returned by the gateway checkout
type VerifyPaymentRequest struct {
	UserID            uint
	IntentID          string
	ProviderPaymentID string
	Signature         string
}

// VerifyPaymentResult is the outcome of a successful verification
type VerifyPaymentResult struct {
	PaymentID         uint   `json:"payment_id"`
	OrderID           uint   `json:"order_id"`
	Status            string `json:"status"`
	EnrolledCourseIDs []uint `json:"enrolled_course_ids"`
}

// CreatePaymentIntent opens a gateway intent for the order total and records a
// PENDING payment for it. Nothing is written when the gateway call fails.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, orderID, userID uint) (*PaymentIntentResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.CreatePaymentIntent")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(orderID)))

	result, err := s.createPaymentIntent(ctx, orderID, userID)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.PaymentIntents.WithLabelValues("created").Inc()
	return result, nil
}

func (s *PaymentService) createPaymentIntent(ctx context.Context, orderID, userID uint) (*PaymentIntentResult, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !order.TotalAmount.IsPositive() {
		return nil, ErrOrderNotPayable
	}

	var completed int64
	err = s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", order.ID, model.PaymentStatusCompleted).
		Count(&completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check payments: %w", err)
	}
	if completed > 0 {
		return nil, ErrOrderAlreadyPaid
	}

	orderRef := strconv.FormatUint(uint64(order.ID), 10)
	amountMinor := ToMinorUnits(order.TotalAmount)
	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountMinor: amountMinor,
		Currency:    order.Currency,
		Receipt:     "order_" + orderRef,
		Notes: map[string]string{
			"order_id": orderRef,
			"user_id":  strconv.FormatUint(uint64(userID), 10),
		},
	})
	if err != nil {
		log.Error().Err(err).Uint("order_id", order.ID).Msg("[PAYMENT] gateway intent creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"receipt":      "order_" + orderRef,
		"amount_minor": intent.AmountMinor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment metadata: %w", err)
	}

	payment := model.Payment{
		OrderID:  order.ID,
		UserID:   userID,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		TxnID:    intent.ID,
		Provider: model.PaymentProviderRazorpay,
		Status:   model.PaymentStatusPending,
		Metadata: datatypes.JSON(metadata),
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.Info().
		Uint("order_id", order.ID).
		Uint("payment_id", payment.ID).
		Str("intent_id", intent.ID).
		Msg("[PAYMENT] payment intent created")

	return &PaymentIntentResult{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		IntentID:    intent.ID,
		Amount:      order.TotalAmount,
		AmountMinor: amountMinor,
		Currency:    order.Currency,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks a gateway confirmation against its PENDING payment. A bad
// signature fails the payment for good. A good one records the provider payment,
// completes the payment and activates enrollments in one transaction.
func (s *PaymentService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.VerifyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.intent_id", req.IntentID))

	result, err := s.verifyPayment(ctx, req)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues(verificationOutcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.PaymentVerifications.WithLabelValues("completed").Inc()
	metrics.EnrollmentsActivated.Add(float64(len(result.EnrolledCourseIDs)))
	return result, nil
}

func verificationOutcome(err error) string {
	switch CategoryOf(err) {
	case CategoryPayment:
		return "signature_mismatch"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (s *PaymentService) verifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	if req.UserID == 0 || req.IntentID == "" || req.ProviderPaymentID == "" || req.Signature == "" {
		return nil, fmt.Errorf("%w: intent id, payment id and signature are required", ErrInvalidInput)
	}

	var payment model.Payment
	err := s.db.WithContext(ctx).
		Where("txn_id = ? AND user_id = ? AND status = ?", req.IntentID, req.UserID, model.PaymentStatusPending).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if !s.gateway.VerifySignature(req.IntentID, req.ProviderPaymentID, req.Signature) {
		if err := s.failPayment(ctx, &payment, "signature mismatch"); err != nil {
			return nil, errors.Join(ErrSignatureMismatch, err)
		}
		log.Warn().
			Uint("payment_id", payment.ID).
			Uint("order_id", payment.OrderID).
			Str("provider_payment_id", req.ProviderPaymentID).
			Msg("[PAYMENT] signature mismatch, payment failed")
		return nil, ErrSignatureMismatch
	}

	result := &VerifyPaymentResult{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    model.PaymentStatusCompleted,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		confirmation := model.ProviderPayment{
			PaymentID:         payment.ID,
			ProviderPaymentID: req.ProviderPaymentID,
			Signature:         req.Signature,
		}
		if err := tx.Create(&confirmation).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateConfirmation
			}
			return fmt.Errorf("failed to record provider payment: %w", err)
		}

		update := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
			Update("status", model.PaymentStatusCompleted)
		if update.Error != nil {
			return fmt.Errorf("failed to complete payment: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return ErrPaymentNotFound
		}

		var courseIDs []uint
		if err := tx.Model(&model.OrderItem{}).Where("order_id = ?", payment.OrderID).Order("id ASC").
			Pluck("course_id", &courseIDs).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		enrolled, err := s.enrollments.Activate(ctx, tx, payment.UserID, payment.OrderID, courseIDs, true)
		if err != nil {
			return err
		}
		result.EnrolledCourseIDs = enrolled

		if err := events.Record(tx, events.PaymentCompleted, payment.ID, events.PaymentPayload{
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			TxnID:     payment.TxnID,
			Amount:    payment.Amount.StringFixed(2),
			Status:    model.PaymentStatusCompleted,
		}); err != nil {
			return err
		}
		return events.Record(tx, events.EnrollmentActivated, payment.OrderID, events.EnrollmentPayload{
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			CourseIDs: enrolled,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("payment_id", payment.ID).
		Uint("order_id", payment.OrderID).
		Ints("courses", toInts(result.EnrolledCourseIDs)).
		Msg("[PAYMENT] payment verified")
	return result, nil
}

// failPayment moves a PENDING payment to FAILED and records the event
func (s *PaymentService) failPayment(ctx context.Context, payment *model.Payment, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         model.PaymentStatusFailed,
				"failure_reason": reason,
			})
		if update.Error != nil {
			return fmt.Errorf("failed to mark payment failed: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return nil
		}
		return events.Record(tx, events.PaymentFailed, payment.ID, events.PaymentPayload{
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			TxnID:     payment.TxnID,
			Amount:    payment.Amount.StringFixed(2),
			Status:    model.PaymentStatusFailed,
			Reason:    reason,
		})
	})
}

// ListPaymentsOptions filters the admin payments listing
type ListPaymentsOptions struct {
	Status string
	Page   int
	Limit  int
}

// ListPayments returns a page of payments, newest first
func (s *PaymentService) ListPayments(ctx context.Context, opts ListPaymentsOptions) ([]model.Payment, int64, error) {
	filter := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Payment{})
		if opts.Status != "" {
			q = q.Where("status = ?", opts.Status)
		}
		return q
	}

	var total int64
	if err := filter().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []model.Payment
	err := filter().
		Preload("ProviderPayment").
		Order("id DESC").
		Offset((opts.Page - 1) * opts.Limit).
		Limit(opts.Limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}

// StalePendingPayments returns PENDING payments created before now minus olderThan.
// They are reported only; their status is left untouched.
func (s *PaymentService) StalePendingPayments(ctx context.Context, olderThan time.Duration) ([]model.Payment, error) {
	cutoff := time.Now().Add(-olderThan)
	var payments []model.Payment
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stale payments: %w", err)
	}
	return payments, nil
}

func toInts(ids []uint) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
