package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", Invalid("req_id is required"), http.StatusBadRequest},
		{"not found", New(KindNotFound, "record not found", nil), http.StatusNotFound},
		{"bare not found sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"conflict", New(KindConflict, "sync in progress", ErrConflict), http.StatusConflict},
		{"no data", New(KindNoData, "no rounds", nil), http.StatusUnprocessableEntity},
		{"upstream", New(KindUpstream, "platform down", errors.New("503")), http.StatusBadGateway},
		{"generator", New(KindGenerator, "bad output", nil), http.StatusBadGateway},
		{"wrapped", fmt.Errorf("sync: %w", New(KindNoData, "empty", nil)), http.StatusUnprocessableEntity},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindUpstream, "recruiting platform request failed", cause)

	assert.Equal(t, "recruiting platform request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "recruiting platform request failed", Message(err))
	assert.Equal(t, "internal error", Message(errors.New("secret detail")))
}
