package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLogger(t *testing.T) {
	defer SetLogger(nil)

	tests := []struct {
		name   string
		config LogConfig
	}{
		{"development debug", LogConfig{Level: "debug", Environment: "development", ServiceName: "test"}},
		{"production info", LogConfig{Level: "info", Environment: "production", ServiceName: "test"}},
		{"unknown level falls back to info", LogConfig{Level: "verbose", Environment: "test", ServiceName: "test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, InitLogger(&tt.config))
			assert.NotNil(t, GetLogger())
		})
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	global := zap.NewExample()
	SetLogger(global)
	defer SetLogger(nil)

	assert.Same(t, global, FromContext(context.Background()))

	scoped := zap.NewNop()
	assert.Same(t, scoped, FromContext(WithContext(context.Background(), scoped)))
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	router := gin.New()
	router.Use(Middleware())
	router.GET("/ping", func(c *gin.Context) {
		FromGin(c).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside handler", entries[0].Message)
	assert.Equal(t, "HTTP Request", entries[1].Message)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusNoContent), entries[1].ContextMap()["status"])
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
