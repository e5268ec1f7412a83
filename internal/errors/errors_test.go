package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{New(CodeBadRequest, "x"), http.StatusBadRequest},
		{SchemaWrap(fmt.Errorf("missing units"), "x"), http.StatusUnprocessableEntity},
		{RateLimit("x"), http.StatusTooManyRequests},
		{ServiceUnavailable("x"), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.err.Code, tt.err.StatusCode, tt.want)
		}
	}
}

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	cause := fmt.Errorf("start after end")
	wrapped := fmt.Errorf("handler: %w", BadRequestWrap(cause, "Invalid filter"))

	WriteError(context.Background(), w, discardLogger(), wrapped, "req-1")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			Details   string `json:"details"`
			RequestID string `json:"request_id"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error.Code != string(CodeBadRequest) || resp.Error.Details != "start after end" || resp.Error.RequestID != "req-1" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestWriteError_PlainErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), w, discardLogger(), fmt.Errorf("disk on fire"), "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Details != "" {
		t.Errorf("internal cause leaked to client: %q", resp.Error.Details)
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteSuccessWithHeaders(w, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "no-store"}); err != nil {
		t.Fatal(err)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("custom header not set")
	}
	if w.Body.String() != "{\"data\":{\"rows\":3},\"success\":true}\n" {
		t.Errorf("body = %s", w.Body.String())
	}
}

var errNotLoaded = stderrors.New("not loaded")

func TestClassify(t *testing.T) {
	mappings := []Mapping{
		{Target: errNotLoaded, Build: func(error) *AppError { return ServiceUnavailable("Dataset not loaded") }},
	}

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"mapped sentinel", fmt.Errorf("dashboard: %w", errNotLoaded), CodeServiceUnavail},
		{"app error wins", BadRequestWrap(errNotLoaded, "Invalid filter"), CodeBadRequest},
		{"unknown", fmt.Errorf("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err, mappings...).Code; got != tt.want {
				t.Errorf("code = %s, want %s", got, tt.want)
			}
		})
	}
}
