package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"streetplan/internal/config"
)

type mockHealthProbe struct {
	name     string
	checkErr error
	delay    time.Duration
	panicMsg string
	called   atomic.Bool
}

func (m *mockHealthProbe) Name() string { return m.name }

func (m *mockHealthProbe) Check(ctx context.Context) error {
	m.called.Store(true)
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.checkErr
}

func runHealth(t *testing.T, probes ...HealthProbe) (int, healthResponse) {
	t.Helper()
	cfg := &config.Config{Build: config.BuildInfo{Version: "1.2.3"}}
	srv, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.HealthProbes = probes

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return w.Code, resp
}

func TestHandleHealth_NoProbes(t *testing.T) {
	code, resp := runHealth(t)
	if code != http.StatusOK || resp.Status != "healthy" {
		t.Errorf("got %d %+v", code, resp)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	db := &mockHealthProbe{name: "database"}
	queue := &mockHealthProbe{name: "queue"}

	code, resp := runHealth(t, db, queue)

	if code != http.StatusOK || resp.Status != "healthy" {
		t.Errorf("got %d %+v", code, resp)
	}
	if !db.called.Load() || !queue.called.Load() {
		t.Error("every probe should be called")
	}
	if resp.Components["database"].Status != "healthy" {
		t.Errorf("database component = %+v", resp.Components["database"])
	}
}

func TestHandleHealth_OneFailing(t *testing.T) {
	code, resp := runHealth(t,
		&mockHealthProbe{name: "database", checkErr: errors.New("connection refused")},
		&mockHealthProbe{name: "queue"},
	)

	if code != http.StatusServiceUnavailable || resp.Status != "unhealthy" {
		t.Errorf("got %d %+v", code, resp)
	}
	if c := resp.Components["database"]; c.Status != "unhealthy" || c.Message != "connection refused" {
		t.Errorf("database component = %+v", c)
	}
	if resp.Components["queue"].Status != "healthy" {
		t.Errorf("queue component = %+v", resp.Components["queue"])
	}
}

func TestHandleHealth_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the health check deadline")
	}
	start := time.Now()
	code, resp := runHealth(t, &mockHealthProbe{name: "database", delay: 10 * time.Second})

	if elapsed := time.Since(start); elapsed > healthCheckTimeout+time.Second {
		t.Errorf("health check took %v", elapsed)
	}
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", code)
	}
	if resp.Components["database"].Status != "unhealthy" {
		t.Errorf("component = %+v", resp.Components["database"])
	}
}

func TestHandleHealth_ProbePanics(t *testing.T) {
	code, resp := runHealth(t, &mockHealthProbe{name: "database", panicMsg: "nil pool"})

	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", code)
	}
	if msg := resp.Components["database"].Message; msg != "probe panicked: nil pool" {
		t.Errorf("message = %q", msg)
	}
}
