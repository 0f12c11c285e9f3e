package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ValerioMC/smart-ledger-be/internal/config"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/transactions", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/transactions", "GET", 200, 5*time.Millisecond)
	m.RecordError("/transactions/:id", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/transactions|GET|200"])
	assert.Equal(t, int64(20), snap.RequestMillis["/transactions|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/transactions/:id|GET|NOT_FOUND"])

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordRequest("/", "GET", 200, 0)
		nilMetrics.RecordError("/", "GET", "X")
	})
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	t.Run("generates a request id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	})

	t.Run("propagates a caller supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	})

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(2), metrics.Snapshot().Requests["/ping|GET|200"])
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense"}, config.AppConfig{Name: "smart-ledger", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
