package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	t.Run("coded error returns its code", func(t *testing.T) {
		err := New(CodeNotFound, "case missing")
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("wrapped coded error is found through the chain", func(t *testing.T) {
		inner := New(CodeDuplicateData, "metadata name reused")
		err := fmt.Errorf("add metadata: %w", inner)
		assert.Equal(t, CodeDuplicateData, CodeOf(err))
		assert.True(t, HasCode(err, CodeDuplicateData))
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil in nil out", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause stays reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "store failure")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "store failure")
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeAlreadyExists))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeAlreadyUsed))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeInvalidState))
	assert.Equal(t, http.StatusPaymentRequired, HTTPStatus(CodeInsufficientFunds))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvalidInput))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
