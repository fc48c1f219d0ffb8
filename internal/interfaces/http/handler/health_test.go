package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status int
		body   string
	}{
		{"no database", nil, http.StatusOK, `{"status":"ready","database":"up"}`},
		{"database up", pingFunc(func(context.Context) error { return nil }), http.StatusOK, `{"status":"ready","database":"up"}`},
		{"database down", pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }), http.StatusServiceUnavailable, `{"status":"unavailable","database":"down"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db)
			engine := newTestEngine()
			engine.GET("/health", h.Live)
			engine.GET("/health/ready", h.Ready)

			rec := doJSON(engine, http.MethodGet, "/health", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

			rec = doJSON(engine, http.MethodGet, "/health/ready", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
