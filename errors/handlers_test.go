package errors_test

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/bellhop-ai/bellhop/errors"
)

func TestErrorHandlerRecoversPanic(t *testing.T) {
	handler := errors.ErrorHandler(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestErrorHandlerPassesThrough(t *testing.T) {
	handler := errors.ErrorHandler(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogError(t *testing.T) {
	logger := zaptest.NewLogger(t)

	errors.LogError(logger, errors.NewValidationError("req-1", "bad request", nil), "req-1")
	errors.LogError(logger, stderrors.New("plain failure"), "req-2")
}
