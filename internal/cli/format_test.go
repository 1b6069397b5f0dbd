package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		0:       "₹0",
		950:     "₹950",
		50000:   "₹50,000",
		1234.5:  "₹1,234.50",
		-2000:   "-₹2,000",
		1234567: "₹1,234,567",
	}
	for in, want := range cases {
		if got := FormatCurrency(in); got != want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	cases := map[float64]string{
		500:        "₹500",
		1234:       "₹1.2K",
		250000:     "₹2.5L",
		12_000_000: "₹1.2Cr",
		-1500:      "-₹1.5K",
	}
	for in, want := range cases {
		if got := FormatCompact(in); got != want {
			t.Errorf("FormatCompact(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              string
	}{
		{1500, 1000, "+₹500"},
		{1000, 1500, "-₹500"},
		{1000, 1000, "±₹0"},
		{1000.5, 1000, "+₹0.50"},
	}
	for _, c := range cases {
		if got := FormatDelta(c.current, c.previous); got != c.want {
			t.Errorf("FormatDelta(%v, %v) = %q, want %q", c.current, c.previous, got, c.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "0s",
		45 * time.Second:              "45s",
		62*time.Minute + time.Second:  "1h 2m",
		5 * time.Minute:               "5m",
		50*time.Hour + 30*time.Minute: "2d 2h",
	}
	for in, want := range cases {
		if got := FormatUptime(in); got != want {
			t.Errorf("FormatUptime(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		7:        "7",
		1234:     "1,234",
		1234567:  "1,234,567",
		-9876543: "-9,876,543",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Rent", FormatCurrency(15000)},
			{"---"},
			{"Total", FormatCurrency(15000)},
		},
	})
	for _, want := range []string{"Category", "Rent", "₹15,000", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderGoalBar(t *testing.T) {
	out := RenderGoalBar(150, 10)
	if strings.Count(out, "█") != 10 || !strings.Contains(out, "150.0%") {
		t.Fatalf("overfull bar = %q, want full bar labelled 150.0%%", out)
	}
	half := RenderGoalBar(50, 10)
	if strings.Count(half, "█") != 5 || strings.Count(half, "░") != 5 {
		t.Fatalf("half bar = %q", half)
	}
	if RenderGoalBar(50, 0) != "" {
		t.Fatal("zero-width bar rendered")
	}
}

func TestRenderDashboard(t *testing.T) {
	v := &model.ViewModel{
		Profile: model.UserFinancialProfile{Income: 50000},
		Output: model.MLModelOutput{
			AmountModel:    model.AmountModelResult{RecommendedSavings: 6000},
			MultiTaskModel: model.MultiTaskModelResult{RiskScore: 0.8},
		},
		Expenses: []model.ExpenseEntry{{Name: "Rent", Value: 15000}, {Name: "Groceries", Value: 5000}},
		Metrics:  model.DashboardMetrics{TotalExpenses: 20000, SavingsGoalProgress: 40, RiskLevel: model.RiskHigh},
	}
	out := RenderDashboard(v)
	for _, want := range []string{"₹50,000", "Rent", "₹20,000", "75.0%", "₹15.0K", "40.0%", "Risk level: High"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDashboard_NoExpenses(t *testing.T) {
	out := RenderDashboard(&model.ViewModel{})
	if !strings.Contains(out, "No expenses recorded") {
		t.Fatalf("empty breakdown not reported:\n%s", out)
	}
}
