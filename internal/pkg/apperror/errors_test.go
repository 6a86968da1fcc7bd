package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidTransition, http.StatusConflict},
		{ErrCodeConflictingDispute, http.StatusConflict},
		{ErrCodeInsufficientFunds, http.StatusPaymentRequired},
		// Повторная финализация при ретраях клиента — не ошибка.
		{ErrCodeAlreadyFinalized, http.StatusOK},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "сообщение").HTTPStatus)
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "запрос не выполнен")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, ErrCodeDatabaseError, Code(err))
}

func TestCode_UnknownError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, Code(errors.New("что-то пошло не так")))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(ErrRequestNotFound))
	assert.True(t, IsForbidden(ErrForbidden))
	assert.True(t, IsInsufficientFunds(ErrInsufficientFunds))
	assert.True(t, IsAlreadyFinalized(ErrAlreadyFinalized))
	assert.False(t, IsNotFound(ErrForbidden))
	assert.False(t, IsAlreadyFinalized(errors.New("другое")))
}
