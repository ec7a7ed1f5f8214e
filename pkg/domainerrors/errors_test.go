package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeInvalidStepTransition, "step is already verified")
	wrapped := fmt.Errorf("update record: %w", base)

	assert.True(t, HasCode(wrapped, CodeInvalidStepTransition))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "gone")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk full")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(CodeNotFound, "verification record not found", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "verification record not found", err.Error())
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInvalidStepTransition, http.StatusConflict},
		{CodeInvariantViolation, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHTTPStatus(tt.code), "code %s", tt.code)
	}
}
