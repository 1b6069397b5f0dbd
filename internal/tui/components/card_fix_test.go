package components

import (
	"strings"
	"testing"

	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowPadsShortCardsWithBackground(t *testing.T) {
	theme.SetActive("flexoki-dark")

	breakdown := ContentCard("Expense Breakdown", "Rent\nGroceries\nTransport\nUtilities\nHealthcare", 30)
	insights := ContentCard("AI Insights", "Risk: Low", 30)

	breakdownLines := strings.Count(breakdown, "\n") + 1
	insightLines := strings.Count(insights, "\n") + 1
	if insightLines >= breakdownLines {
		t.Fatal("insights card should be shorter than breakdown card")
	}

	lines := strings.Split(CardRow([]string{breakdown, insights}), "\n")
	if len(lines) != breakdownLines {
		t.Fatalf("joined height = %d, want %d", len(lines), breakdownLines)
	}
	for i := insightLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("padding line %d has no background styling: %q", i, lines[i])
		}
	}
}

func TestCardRowKeepsUniformWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	left := ContentCard("Derived Features", "a\nb\nc\nd\ne\nf", 24)
	right := ContentCard("Expense Breakdown", "x", 36)

	lines := strings.Split(CardRow([]string{left, right}), "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestMetricCardRowFillsWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Monthly Income", Value: "₹50,000"},
		{Label: "Total Expenses", Value: "₹32,500", Delta: "65.0% of income"},
		{Label: "Savings Potential", Value: "₹4,200", Color: theme.Active.Green},
		{Label: "Risk Level", Value: "Low", Color: theme.Active.RiskColor("Low")},
	}, 120)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 120 {
			t.Errorf("line %d width = %d, want 120", i, w)
		}
	}
	if !strings.Contains(row, "₹50,000") || !strings.Contains(row, "65.0% of income") {
		t.Fatal("metric values missing from row")
	}
}
