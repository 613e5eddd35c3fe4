package validation

import (
	"testing"

	"github.com/lmsportal/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name          string
		input         any
		expectedError bool
		errorContains []string
	}{
		{
			name:  "valid course",
			input: models.CourseResource{Title: "Algebra", Description: "Intro"},
		},
		{
			name:          "missing title and description",
			input:         models.CourseResource{},
			expectedError: true,
			errorContains: []string{"title is required", "description is required"},
		},
		{
			name: "title too long",
			input: models.CourseResource{
				Title:       string(make([]byte, 201)),
				Description: "Intro",
			},
			expectedError: true,
			errorContains: []string{"title must be at most 200 characters"},
		},
		{
			name:          "enrollment without ids",
			input:         models.EnrollmentResource{},
			expectedError: true,
			errorContains: []string{"user is required", "course is required"},
		},
		{
			name:          "enrollment with negative id",
			input:         models.EnrollmentResource{User: -1, Course: 2},
			expectedError: true,
			errorContains: []string{"user must be greater than 0"},
		},
		{
			name:  "empty patch",
			input: models.CoursePatch{},
		},
		{
			name:          "patch with empty title",
			input:         models.CoursePatch{Title: strPtr("")},
			expectedError: true,
			errorContains: []string{"title must not be empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)

			if !tt.expectedError {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, models.ErrValidation)
			for _, msg := range tt.errorContains {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
