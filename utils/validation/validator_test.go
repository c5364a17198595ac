package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	CourseIDs []uint `json:"course_ids" validate:"required,min=1,dive,gt=0"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED"`
	Note      string `validate:"max=3"`
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		req  sampleRequest
		want map[string]string
	}{
		{
			name: "valid",
			req:  sampleRequest{CourseIDs: []uint{1}},
			want: map[string]string{},
		},
		{
			name: "missing ids",
			req:  sampleRequest{},
			want: map[string]string{"course_ids": "course_ids is required"},
		},
		{
			name: "zero id",
			req:  sampleRequest{CourseIDs: []uint{0}},
			want: map[string]string{"course_ids[0]": "course_ids[0] must be greater than 0"},
		},
		{
			name: "bad status and untagged field",
			req:  sampleRequest{CourseIDs: []uint{2}, Status: "DONE", Note: "too long"},
			want: map[string]string{
				"status": "status must be one of: PENDING APPROVED",
				"Note":   "Note must have at most 3 characters",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if len(tt.want) == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, tt.want, FormatValidationErrors(err))
		})
	}
}

func TestFormatValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(errors.New("boom")))
	assert.Empty(t, FormatValidationErrors(nil))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("student@demo.local"))
	assert.False(t, ValidateEmail("student"))
	assert.False(t, ValidateEmail("a@"))
}
