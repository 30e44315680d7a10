package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	h := chimw.RequestID(LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/room/K2M9P", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"path":"/room/K2M9P"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}

func TestLogWebSocket(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	LogWebSocketConnect(logger, "1.2.3.4:5", "/room/ws/clash-kings-v2-K2M9P")
	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/room/ws/clash-kings-v2-K2M9P", errors.New("eof"))

	out := buf.String()
	assert.Contains(t, out, "WebSocket connected")
	assert.Contains(t, out, "WebSocket disconnected")
	assert.Contains(t, out, "error=eof")
}
