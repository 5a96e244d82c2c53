package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := Log
	Log = zap.New(core).Sugar()
	defer func() { Log = previous }()

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hola"))
	}))

	testCases := []struct {
		name       string
		incomingID string
	}{
		{"generated id", ""},
		{"propagated id", "req-42"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/tareas", nil)
			if testCase.incomingID != "" {
				request.Header.Set(RequestIDHeader, testCase.incomingID)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			requestID := recorder.Header().Get(RequestIDHeader)
			if testCase.incomingID != "" {
				assert.Equal(t, testCase.incomingID, requestID)
			} else {
				_, err := uuid.Parse(requestID)
				assert.NoError(t, err)
			}
			assert.Equal(t, http.StatusTeapot, recorder.Code)
		})
	}

	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].Message, "req-42")
	assert.Contains(t, entries[1].Message, "418")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	previous := Log
	defer func() { Log = previous }()

	assert.Error(t, Init("loud"))
	assert.NoError(t, Init("warn"))
	assert.False(t, Log.Desugar().Core().Enabled(zap.InfoLevel))
}
