package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fincast/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	moneyStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// padRight and padLeft pad by display width; amounts carry a multi-byte ₹.
func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}

func separator(widths []int, left, mid, right string) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
	return b.String()
}

// RenderTable renders a bordered table with headers and rows.
// A row holding the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(separator(widths, "╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(separator(widths, "├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(separator(widths, "├", "┼", "┤"))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align value columns (all except first)
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, widths[i]) + " "
			} else {
				padded = " " + padLeft(cell, widths[i]) + " "
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(separator(widths, "╰", "┴", "╯"))
	return b.String()
}

// RenderGoalBar renders progress toward a savings goal. pct is a percentage;
// the bar is capped at full but the label keeps the real figure.
func RenderGoalBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	fill := pct / 100
	fill = math.Max(0, math.Min(fill, 1))

	filled := int(fill * float64(width))
	style := moneyStyle
	if pct < 100 {
		style = warnStyle
	}
	bar := style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %.1f%%", bar, pct)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders one labelled bar of a horizontal bar chart.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return fmt.Sprintf("  %s", label)
	}
	barLen := int(value / maxValue * float64(maxWidth))
	if barLen < 0 {
		barLen = 0
	}
	return fmt.Sprintf("  %s %s %s", padRight(label, 14), moneyStyle.Render(strings.Repeat("█", barLen)),
		mutedStyle.Render(FormatCompact(value)))
}

// RenderError renders the single dashboard error line.
func RenderError(msg string) string {
	return errorStyle.Render("Error: " + msg)
}

// RenderDashboard renders the one-shot text summary of a view model.
func RenderDashboard(v *model.ViewModel) string {
	var b strings.Builder
	p, out, m := v.Profile, v.Output, v.Metrics

	b.WriteString(RenderTitle("Financial Dashboard"))
	b.WriteString("\n\n")

	b.WriteString(RenderTable(Table{
		Title:   "Overview",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Monthly Income", FormatCurrency(p.Income)},
			{"Total Expenses", FormatCurrency(m.TotalExpenses)},
			{"Savings Potential", FormatCurrency(m.SavingsPotential)},
			{"Recommended Savings", FormatCurrency(out.AmountModel.RecommendedSavings)},
			{"Essential / Total", FormatPercent(m.EssentialRatio)},
			{"Savings Rate", FormatPercent(m.SavingsRate)},
			{"Age Group", m.AgeGroup},
		},
	}))
	b.WriteString("  Goal ")
	b.WriteString(RenderGoalBar(m.SavingsGoalProgress, 30))
	b.WriteString("\n\n")

	if len(v.Expenses) == 0 {
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render("No expenses recorded"))
		b.WriteString("\n")
	} else {
		var peak, total float64
		rows := make([][]string, 0, len(v.Expenses)+2)
		for _, e := range v.Expenses {
			peak = max(peak, e.Value)
			total += e.Value
		}
		for _, e := range v.Expenses {
			rows = append(rows, []string{e.Name, FormatCurrency(e.Value), FormatPercent(e.Value / total)})
		}
		rows = append(rows, []string{"---"}, []string{"Total", FormatCurrency(total), "100.0%"})
		b.WriteString(RenderTable(Table{
			Title:   "Expense Breakdown",
			Headers: []string{"Category", "Amount", "Share"},
			Rows:    rows,
		}))
		b.WriteString("\n")
		for _, e := range v.Expenses {
			b.WriteString(RenderHorizontalBar(e.Name, e.Value, peak, 30))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	risk := valueStyle.Render(m.RiskLevel)
	if m.RiskLevel == model.RiskHigh {
		risk = warnStyle.Render(m.RiskLevel)
	}
	b.WriteString(RenderTable(Table{
		Title:   "AI Insights",
		Headers: []string{"Model", "Result"},
		Rows: [][]string{
			{"Can Achieve Savings", FormatYesNo(out.SavingsModel.CanAchieveSavings)},
			{"Confidence", FormatPercent(out.SavingsModel.Confidence)},
			{"Financial Risk", FormatYesNo(out.MultiTaskModel.FinancialRisk)},
			{"Risk Score", fmt.Sprintf("%.2f", out.MultiTaskModel.RiskScore)},
		},
	}))
	b.WriteString("  Risk level: ")
	b.WriteString(risk)
	b.WriteString("\n")
	return b.String()
}
