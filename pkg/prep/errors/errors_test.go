package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeGeneration, "generation failed", nil)

	assert.NotNil(t, err)
	assert.Equal(t, ErrCodeGeneration, err.Code)
	assert.Equal(t, "generation failed", err.Message)
	assert.Nil(t, err.Cause)
	assert.Empty(t, err.Remediation)
}

func TestNew_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeGeneration, "generation failed", cause)

	assert.NotNil(t, err)
	assert.Equal(t, ErrCodeGeneration, err.Code)
	assert.Equal(t, cause, err.Cause)
}

func TestNewRemediable(t *testing.T) {
	err := NewRemediable(ErrCodeCacheExpired, "cache unknown", RemediationRestart, nil)

	assert.Equal(t, ErrCodeCacheExpired, err.Code)
	assert.Equal(t, RemediationRestart, err.Remediation)
}

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeCacheCreate, "cache rejected", nil)
	errorString := err.Error()

	assert.Contains(t, errorString, ErrCodeCacheCreate)
	assert.Contains(t, errorString, "cache rejected")
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeCacheCreate, "cache rejected", cause)
	errorString := err.Error()

	assert.Contains(t, errorString, ErrCodeCacheCreate)
	assert.Contains(t, errorString, "cache rejected")
	assert.Contains(t, errorString, "underlying error")
}

func TestErrorCodes(t *testing.T) {
	// Verify all error codes are unique and non-empty
	codes := []string{
		ErrCodeValidation,
		ErrCodeCacheCreate,
		ErrCodeCacheExpired,
		ErrCodeGeneration,
		ErrCodeInvalidState,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "duplicate error code: %s", code)
		seen[code] = true
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeGeneration, "generation failed", cause)

	unwrapped := errors.Unwrap(err)
	assert.Equal(t, cause, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	cause := errors.New("specific error")
	err := New(ErrCodeGeneration, "generation failed", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error", New(ErrCodeValidation, "bad input", nil), ErrCodeValidation},
		{"wrapped app error", fmt.Errorf("outer: %w", New(ErrCodeCacheExpired, "gone", nil)), ErrCodeCacheExpired},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeInvalidState, "double finalize", nil)

	assert.True(t, IsCode(err, ErrCodeInvalidState))
	assert.False(t, IsCode(err, ErrCodeValidation))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeInvalidState))
}

func TestRemediationOf(t *testing.T) {
	remediable := NewRemediable(ErrCodeCacheExpired, "cache unknown", RemediationRestart, nil)
	wrapped := fmt.Errorf("stage failed: %w", remediable)

	assert.Equal(t, RemediationRestart, RemediationOf(remediable))
	assert.Equal(t, RemediationRestart, RemediationOf(wrapped))
	assert.Empty(t, RemediationOf(New(ErrCodeGeneration, "fail", nil)))
	assert.Empty(t, RemediationOf(errors.New("plain")))
}
