package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestDashboard(t *testing.T) {
	html := render(t, Dashboard(PageData{
		Divisions:       []string{"Chocolate", "Sugar & Co"},
		MinDate:         "2024-01-01",
		MaxDate:         "2024-12-31",
		MarginThreshold: 0.1,
	}))

	for _, want := range []string{
		"<title>Profit &amp; Margin Dashboard</title>",
		`<option value="Sugar &amp; Co">`,
		`min="2024-01-01"`,
		`id="kpi-cards"`,
		`id="at-risk"`,
		"marginThreshold",
		"/sse/refresh",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, `data-signals="{"`) {
		t.Error("signals attribute must be escaped")
	}
}

func TestKPICards(t *testing.T) {
	html := render(t, KPICards(models.Totals{
		Rows: 3, TotalSales: 1234.5, TotalProfit: 200, TotalUnits: 9,
		MeanMargin: models.Float(0.25),
	}))
	for _, want := range []string{"$1234.50", "$200.00", "25.00%", ">9<", ">3<"} {
		if !strings.Contains(html, want) {
			t.Errorf("cards missing %q:\n%s", want, html)
		}
	}

	empty := render(t, KPICards(models.Totals{}))
	if !strings.Contains(empty, "n/a") {
		t.Error("undefined mean margin should render as n/a")
	}
}

func TestInsights(t *testing.T) {
	findings := []models.Finding{
		{Rule: models.RuleBestDivision, Severity: models.SeverityInfo, Params: map[string]any{"division": "Chocolate", "profit": 90.0}},
		{Rule: "unknown_rule", Severity: models.SeverityInfo},
	}
	html := render(t, Insights(findings, kpi.TextRenderer{}))
	if !strings.Contains(html, "Highest profit division: Chocolate") {
		t.Errorf("insight text missing:\n%s", html)
	}
	if strings.Count(html, "<li") != 1 {
		t.Error("findings rendered empty should be dropped")
	}

	if !strings.Contains(render(t, Insights(nil, kpi.TextRenderer{})), "No insights") {
		t.Error("empty state missing")
	}
}

func TestProducts_EscapesNames(t *testing.T) {
	html := render(t, Products([]models.ProductAggregate{{
		Product:                "<script>x</script>",
		VolatilityInsufficient: true,
		VolatilityRisk:         models.VolatilityUnknown,
		CostRisk:               true,
	}}))
	if strings.Contains(html, "<script>x") {
		t.Error("product name not escaped")
	}
	if !strings.Contains(html, `class="row-risk"`) || !strings.Contains(html, "badge-unknown") {
		t.Errorf("risk markers missing:\n%s", html)
	}
}

func TestAtRisk_Truncates(t *testing.T) {
	rows := make([]models.DerivedRow, maxTableRows+5)
	for i := range rows {
		rows[i] = models.DerivedRow{
			Transaction: models.Transaction{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Product: "P"},
			GrossMargin: models.Float(0.05),
			CostRisk:    true,
		}
	}
	html := render(t, AtRisk(rows))
	if strings.Count(html, "<td>2024-01-01</td>") != maxTableRows {
		t.Errorf("expected %d rendered rows", maxTableRows)
	}
	if !strings.Contains(html, "showing the first 50") {
		t.Error("truncation note missing")
	}

	if !strings.Contains(render(t, AtRisk(nil)), "No transactions below") {
		t.Error("empty state missing")
	}
}

func TestFragments(t *testing.T) {
	s, err := kpi.Compute([]models.Transaction{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Division: "A", Product: "P", Sales: 10, Cost: 5, Units: 1},
	}, kpi.DefaultPolicy().DefaultFilter(), kpi.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"kpi-cards", "insights", "products-table", "divisions-table", "at-risk"}
	fragments := Fragments(s, kpi.TextRenderer{})
	if len(fragments) != len(ids) {
		t.Fatalf("fragments = %d", len(fragments))
	}
	for i, c := range fragments {
		if html := render(t, c); !strings.Contains(html, `id="`+ids[i]+`"`) {
			t.Errorf("fragment %d should carry id %s", i, ids[i])
		}
	}
}

func TestFilterError(t *testing.T) {
	html := render(t, FilterError("bad <date>"))
	if !strings.Contains(html, `id="filter-error"`) || !strings.Contains(html, "bad &lt;date&gt;") {
		t.Errorf("filter error = %s", html)
	}
}
