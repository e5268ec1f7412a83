package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"profit-dashboard/internal/kpi"
)

func refresh(t *testing.T, signals string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSSEHandlers(createTestAnalytics(), kpi.TextRenderer{}, testLogger())

	target := "/sse/refresh"
	if signals != "" {
		target += "?" + url.Values{"datastar": {signals}}.Encode()
	}
	w := httptest.NewRecorder()
	h.HandleRefresh(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()

	h := NewSSEHandlers(analytics, kpi.TextRenderer{}, logger)
	if h.analytics != analytics || h.logger != logger {
		t.Error("NewSSEHandlers() should keep its dependencies")
	}
}

func TestSSEHandlers_Refresh(t *testing.T) {
	w := refresh(t, `{"start":"","end":"","divisions":["Chocolate"],"marginThreshold":0.45,"product":""}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"datastar-patch-elements",
		`id="filter-error"`,
		`id="kpi-cards"`,
		`id="insights"`,
		`id="products-table"`,
		`id="divisions-table"`,
		`id="at-risk"`,
		"datastar-patch-signals",
		`"charts"`,
		`"pareto"`,
		"Dark Bar",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q", want)
		}
	}
	if strings.Contains(body, "Lollipop") {
		t.Error("division filter not applied")
	}
	if !strings.Contains(body, "2 transactions below the margin threshold") {
		t.Error("at-risk section should reflect the signalled threshold")
	}
}

func TestSSEHandlers_RefreshWithoutSignals(t *testing.T) {
	w := refresh(t, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Lollipop") {
		t.Error("missing signals should show every division")
	}
}

func TestSSEHandlers_RefreshInvalidFilter(t *testing.T) {
	w := refresh(t, `{"start":"2024-03-01","end":"2024-01-01","divisions":[],"marginThreshold":0.1,"product":""}`)

	body := w.Body.String()
	if !strings.Contains(body, "Invalid filter") {
		t.Errorf("expected filter error patch:\n%s", body)
	}
	if strings.Contains(body, `id="kpi-cards"`) {
		t.Error("sections should not be patched for an invalid filter")
	}
}

func TestSSEHandlers_RefreshThresholdAsString(t *testing.T) {
	tests := []struct {
		name      string
		threshold string
		want      string
	}{
		{"cleared input falls back to policy", `""`, "1 transactions below the margin threshold"},
		{"null falls back to policy", `null`, "1 transactions below the margin threshold"},
		{"numeric string", `"0.45"`, "2 transactions below the margin threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			divisions := `[]`
			if tt.threshold == `"0.45"` {
				divisions = `["Chocolate"]`
			}
			w := refresh(t, `{"start":"","end":"","divisions":`+divisions+`,"marginThreshold":`+tt.threshold+`,"product":""}`)

			body := w.Body.String()
			if strings.Contains(body, "Invalid filter") {
				t.Fatalf("threshold %s rejected:\n%s", tt.threshold, body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("stream missing %q", tt.want)
			}
		})
	}
}

func TestSSEHandlers_RefreshThresholdNotANumber(t *testing.T) {
	w := refresh(t, `{"start":"","end":"","divisions":[],"marginThreshold":"abc","product":""}`)
	if !strings.Contains(w.Body.String(), "Invalid filter") {
		t.Error("non-numeric threshold should be reported")
	}
}
