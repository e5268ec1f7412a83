package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"profit-dashboard/internal/dataset"
	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/models"
	"profit-dashboard/internal/observability"
	"profit-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() *Server {
	metrics := observability.NewMetrics()
	a := services.NewAnalytics(kpi.DefaultPolicy(), metrics, testLogger())
	a.SetTable(dataset.NewTable("test", []models.Transaction{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Division: "A", Product: "P", Sales: 10, Cost: 6, Units: 2},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Division: "B", Product: "Q", Sales: 20, Cost: 5, Units: 1},
	}))
	page := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}
	return NewServer(a, metrics, testLogger(), &TemplateHandlers{Dashboard: page})
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path        string
		contentType string
	}{
		{"/", "text/html"},
		{"/health", "application/json"},
		{"/admin/stats", "application/json"},
		{"/metrics", "text/plain"},
		{"/api/filters", "application/json"},
		{"/api/dashboard", "application/json"},
		{"/api/products", "application/json"},
		{"/api/divisions", "application/json"},
		{"/api/concentration", "application/json"},
		{"/api/insights", "application/json"},
		{"/api/at-risk", "application/json"},
		{"/api/export.csv", "text/csv"},
		{"/api/export.xlsx", "spreadsheetml"},
		{"/sse/refresh", "text/event-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if tt.contentType == "application/json" {
				var result map[string]any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
				if result["success"] != true {
					t.Errorf("success = %v", result["success"])
				}
			}
		})
	}
}

func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/dashboard", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"GET", "/nope", http.StatusNotFound},
		{"GET", "/api/dashboard?start=yesterday", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestGracefulServer_ShutdownRunsHooksInReverse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	httpServer := &http.Server{Handler: newTestServer()}
	gs := NewGracefulServer(httpServer, testLogger(), 5*time.Second)

	var order []string
	gs.RegisterShutdownHook("tracing", func(context.Context) error {
		order = append(order, "tracing")
		return nil
	})
	gs.RegisterShutdownHook("limiter", func(context.Context) error {
		order = append(order, "limiter")
		return errors.New("already stopped")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "limiter") {
			t.Errorf("expected hook failure to be reported, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if strings.Join(order, ",") != "limiter,tracing" {
		t.Errorf("hook order = %v", order)
	}
}
