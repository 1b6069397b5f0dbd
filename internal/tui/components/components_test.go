package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutRowSumsToTotal(t *testing.T) {
	widths := LayoutRow(100, 3)
	if widths[0] != 34 || widths[1] != 33 || widths[2] != 33 {
		t.Fatalf("LayoutRow(100, 3) = %v", widths)
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1 // separators

		got := lipgloss.Width(tabRow(active))
		if got != want {
			t.Fatalf("active=%d: rendered width %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('p'); got != 3 {
		t.Fatalf("TabIdxByKey('p') = %d, want 3 (Report)", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestBreakdownBars(t *testing.T) {
	out := BreakdownBars(
		[]string{"Rent", "Groceries"},
		[]float64{15000, 5000},
		[]string{"#8884d8", "#82ca9d"},
		60,
	)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "75.0%") || !strings.Contains(lines[1], "25.0%") {
		t.Fatalf("shares missing:\n%s", out)
	}
	if strings.Count(lines[0], "█") <= strings.Count(lines[1], "█") {
		t.Fatal("larger expense should have the longer bar")
	}
}

func TestFormatChartLabel(t *testing.T) {
	cases := map[float64]string{
		500:      "500",
		2000:     "2k",
		2500:     "2.5k",
		100000:   "1L",
		15000000: "1.5Cr",
	}
	for in, want := range cases {
		if got := formatChartLabel(in); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", in, got, want)
		}
	}
}
