package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return resp
}

func TestHandlerAggregatesCheckers(t *testing.T) {
	handler := NewHandler("v0.3.0")
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error { return nil }))
	handler.RegisterChecker("kafka", NewSimpleChecker("kafka", func() error { return nil }))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeResponse(t, w)
	if resp.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", resp.Status, StatusHealthy)
	}
	if resp.Version != "v0.3.0" {
		t.Errorf("version = %s, want v0.3.0", resp.Version)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("checks = %d, want 2", len(resp.Checks))
	}
}

func TestHandlerSingleFailingCheckerMakesUnhealthy(t *testing.T) {
	handler := NewHandler("v0.3.0")
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error { return nil }))
	handler.RegisterChecker("kafka", NewSimpleChecker("kafka", func() error {
		return errors.New("broker unreachable")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if resp := decodeResponse(t, w); resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want %s", resp.Status, StatusUnhealthy)
	}
}

func TestLivenessHandlerAlwaysOK(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "ok" {
		t.Errorf("body = %q, want %q", got, "ok")
	}
}

func TestReadinessHandler(t *testing.T) {
	cases := []struct {
		name     string
		checkErr error
		wantCode int
		wantBody string
	}{
		{name: "ready", checkErr: nil, wantCode: http.StatusOK, wantBody: "ready"},
		{name: "not ready", checkErr: errors.New("pool exhausted"), wantCode: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v0.3.0")
			handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error {
				return tc.checkErr
			}))

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tc.wantCode)
			}
			if got := w.Body.String(); got != tc.wantBody {
				t.Errorf("body = %q, want %q", got, tc.wantBody)
			}
		})
	}
}

func TestSimpleCheckerMeasuresDuration(t *testing.T) {
	checker := NewSimpleChecker("slow", func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	check := checker.Check()
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusHealthy)
	}
	if check.DurationMs < 10 {
		t.Errorf("duration = %dms, want >= 10ms", check.DurationMs)
	}
}

func TestSimpleCheckerReportsError(t *testing.T) {
	checker := NewSimpleChecker("broken", func() error {
		return errors.New("connection refused")
	})

	check := checker.Check()
	if check.Status != StatusUnhealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusUnhealthy)
	}
	if check.Message != "connection refused" {
		t.Errorf("message = %q, want %q", check.Message, "connection refused")
	}
}

func TestPingCheckerPassesContext(t *testing.T) {
	var gotCtx context.Context
	checker := NewPingChecker("storage", func(ctx context.Context) error {
		gotCtx = ctx
		return ctx.Err()
	})

	check := checker.Check()
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusHealthy)
	}
	if gotCtx == nil {
		t.Fatal("ping func did not receive a context")
	}
	if _, ok := gotCtx.Deadline(); !ok {
		t.Error("ping context has no deadline")
	}
}
