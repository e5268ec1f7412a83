package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/services"
	"profit-dashboard/internal/ui/templates"
)

// thresholdSignal accepts the margin threshold as a JSON number or as the
// string a cleared number input binds to. Empty and null mean unset.
type thresholdSignal struct {
	value *float64
}

func (t *thresholdSignal) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		t.value = nil
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		t.value = nil
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("marginThreshold %q is not a number", raw)
	}
	t.value = &v
	return nil
}

// refreshSignals is what the page store sends back.
type refreshSignals struct {
	Start           string          `json:"start"`
	End             string          `json:"end"`
	Divisions       []string        `json:"divisions"`
	MarginThreshold thresholdSignal `json:"marginThreshold"`
	Product         string          `json:"product"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	renderer  kpi.Renderer
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, renderer kpi.Renderer, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		renderer:  renderer,
		logger:    logger,
	}
}

func (h *SSEHandlers) filterFromSignals(r *http.Request) (kpi.Filter, error) {
	var sig refreshSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		return kpi.Filter{}, err
	}
	p := filterParams{
		Start:           sig.Start,
		End:             sig.End,
		Divisions:       sig.Divisions,
		MarginThreshold: sig.MarginThreshold.value,
		Product:         sig.Product,
	}
	return p.filter(h.analytics.Policy().MarginThreshold)
}

func renderFilterError(ctx context.Context, msg string) (string, error) {
	var buf strings.Builder
	err := templates.FilterError(msg).Render(ctx, &buf)
	return buf.String(), err
}

// HandleRefresh recomputes the dashboard for the page's current filter
// signals, patches every section and pushes the chart series as signals.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, filterErr := h.filterFromSignals(r)
	sse := datastar.NewSSE(w, r)

	if filterErr != nil {
		h.logger.WarnContext(ctx, "invalid refresh filter", "error", filterErr)
		html, err := renderFilterError(ctx, "Invalid filter: " + filterErr.Error())
		if err != nil {
			h.logger.ErrorContext(ctx, "render filter error", "error", err)
			return
		}
		sse.PatchElements(html)
		return
	}

	s, err := h.analytics.Dashboard(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "compute dashboard", "error", err)
		html, renderErr := renderFilterError(ctx, "Dashboard unavailable")
		if renderErr == nil {
			sse.PatchElements(html)
		}
		return
	}

	if html, err := renderFilterError(ctx, ""); err == nil {
		sse.PatchElements(html)
	}

	for _, c := range templates.Fragments(s, h.renderer) {
		var buf strings.Builder
		if err := c.Render(ctx, &buf); err != nil {
			h.logger.ErrorContext(ctx, "render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(buf.String()); err != nil {
			h.logger.DebugContext(ctx, "client went away", "error", err)
			return
		}
	}

	signals, err := json.Marshal(map[string]any{
		"charts": services.BuildCharts(s),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}
