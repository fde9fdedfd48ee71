package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/game/list", nil))

	require.Len(t, hook.Entries, 1)
	e := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, http.StatusNotFound, e.Data["status"])
	assert.Equal(t, "/game/list", e.Data["path"])
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogMiddlewareDefaultsToOK(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.InfoLevel, e.Level)
	assert.Equal(t, http.StatusOK, e.Data["status"])
	assert.Equal(t, 4, e.Data["bytes"])
}

func TestHijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rec.Hijack()
	assert.Error(t, err)
}

func TestLogWebSocketDisconnect(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/ws", nil)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/ws", errors.New("reset"))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
