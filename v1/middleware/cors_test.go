package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("SetsCORSHeaders", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE")
		assert.Equal(t, "86400", recorder.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("PreflightShortCircuits", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Body.String())
	})

	t.Run("MaxAgeFromEnvironment", func(t *testing.T) {
		os.Setenv("CORS_MAX_AGE", "3600")
		defer os.Unsetenv("CORS_MAX_AGE")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))

		assert.Equal(t, "3600", recorder.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("InvalidMaxAgeFallsBack", func(t *testing.T) {
		os.Setenv("CORS_MAX_AGE", "not-a-number")
		defer os.Unsetenv("CORS_MAX_AGE")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))

		assert.Equal(t, "86400", recorder.Header().Get("Access-Control-Max-Age"))
	})
}
