package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("collection", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })
	c.Register("redis", Ping(func(context.Context) error { return errors.New("refused") }, true))
	if got := c.Run(context.Background()).Status; got != StatusDegraded {
		t.Fatalf("status = %s, want degraded", got)
	}

	c.Register("postgres", Ping(func(context.Context) error { return errors.New("refused") }, false))
	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Fatalf("status = %s, want down", report.Status)
	}
	if report.Components["postgres"].Message != "refused" {
		t.Errorf("message = %q", report.Components["postgres"].Message)
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", Ping(func(context.Context) error { return errors.New("refused") }, true))
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("degraded should stay ready, got %d", rec.Code)
	}

	c.Register("collection", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("down should be unavailable, got %d", rec.Code)
	}
}
