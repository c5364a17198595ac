package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{ErrCartEmpty, CategoryValidation},
		{fmt.Errorf("%w: bad", ErrInvalidInput), CategoryValidation},
		{fmt.Errorf("%w in course 3", ErrAlreadyEnrolled), CategoryConflict},
		{ErrDuplicateConfirmation, CategoryConflict},
		{fmt.Errorf("course 4: %w", ErrShareLimitExceeded), CategoryConflict},
		{ErrOrderNotFound, CategoryNotFound},
		{ErrCourseUnavailable, CategoryNotFound},
		{errors.Join(ErrSignatureMismatch, errors.New("db down")), CategoryPayment},
		{fmt.Errorf("%w: timeout", ErrGatewayFailure), CategoryUpstream},
		{errors.New("boom"), CategoryInternal},
		{nil, CategoryInternal},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx" (SQLSTATE 23505)`)))
	assert.True(t, isDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: enrollments.user_id (2067)")))
	assert.False(t, isDuplicateKey(errors.New("connection reset")))
	assert.False(t, isDuplicateKey(nil))
}
