package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorCategory groups service errors by how callers should react to them
type ErrorCategory int

const (
	CategoryInternal ErrorCategory = iota
	CategoryValidation
	CategoryConflict
	CategoryNotFound
	CategoryPayment
	CategoryUpstream
)

// Validation errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrOrderNotPayable   = errors.New("order does not require payment")
	ErrInvalidSharePct   = errors.New("share percent must be between 0 and 100")
	ErrInvalidShareState = errors.New("invalid instructor share status")
)

// Conflict errors
var (
	ErrAlreadyEnrolled       = errors.New("already enrolled")
	ErrOrderAlreadyPaid      = errors.New("order is already paid")
	ErrShareLimitExceeded    = errors.New("approved instructor shares exceed 100%")
	ErrDuplicateConfirmation = errors.New("payment confirmation already recorded")
)

// Not-found errors. Resources owned by another user are reported the same way.
var (
	ErrCourseUnavailable = errors.New("course unavailable")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInstructorUnknown = errors.New("instructor not found")
)

// Payment and upstream errors
var (
	ErrSignatureMismatch = errors.New("payment signature verification failed")
	ErrGatewayFailure    = errors.New("payment gateway unavailable")
)

var categories = map[error]ErrorCategory{
	ErrInvalidInput:          CategoryValidation,
	ErrCartEmpty:             CategoryValidation,
	ErrOrderNotPayable:       CategoryValidation,
	ErrInvalidSharePct:       CategoryValidation,
	ErrInvalidShareState:     CategoryValidation,
	ErrAlreadyEnrolled:       CategoryConflict,
	ErrOrderAlreadyPaid:      CategoryConflict,
	ErrShareLimitExceeded:    CategoryConflict,
	ErrDuplicateConfirmation: CategoryConflict,
	ErrCourseUnavailable:     CategoryNotFound,
	ErrOrderNotFound:         CategoryNotFound,
	ErrPaymentNotFound:       CategoryNotFound,
	ErrInstructorUnknown:     CategoryNotFound,
	ErrSignatureMismatch:     CategoryPayment,
	ErrGatewayFailure:        CategoryUpstream,
}

// CategoryOf classifies err. Unknown errors are internal.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return CategoryInternal
	}
	for sentinel, category := range categories {
		if errors.Is(err, sentinel) {
			return category
		}
	}
	return CategoryInternal
}

// isDuplicateKey reports whether err is a unique constraint violation
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
