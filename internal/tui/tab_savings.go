package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// savingsMonths is how many calendar months the progress chart spans.
const savingsMonths = 6

func (a App) renderSavingsTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.opts.History == nil {
		return components.ContentCard("Savings Progress", mutedStyle.Render("History is disabled."), cw)
	}
	if a.historyErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		return components.ContentCard("Savings Progress", warn.Render("Could not load history: "+a.historyErr.Error()), cw)
	}
	if len(a.snapshots) == 0 {
		return components.ContentCard("Savings Progress",
			mutedStyle.Render("No history yet. Each new prediction is recorded as it arrives."), cw)
	}

	now := time.Now()
	months := pipeline.AggregateMonths(a.snapshots, now.AddDate(0, -(savingsMonths-1), 0), now)
	sum := pipeline.SummarizeHistory(a.snapshots)

	var b strings.Builder

	cards := []components.Metric{
		{Label: "Predictions", Value: cli.FormatNumber(int64(sum.Snapshots)),
			Delta: "since " + sum.First.Format("Jan 2")},
		{Label: "Avg Potential", Value: cli.FormatCurrency(sum.AvgPotential),
			Delta: "best " + cli.FormatCurrency(sum.BestPotential)},
		{Label: "Avg Target", Value: cli.FormatCurrency(sum.AvgTarget)},
		{Label: "Months On Target", Value: fmt.Sprintf("%d / %d", sum.MonthsOnTarget, sum.MonthsWithRecord),
			Delta: fmt.Sprintf("risk %+.2f", sum.RiskScoreChange)},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Latest Prediction", a.renderLatestGoal(cw), cw))
	b.WriteString("\n")

	actual := make([]float64, len(months))
	labels := make([]string, len(months))
	for i, m := range months {
		actual[i] = m.Actual
		labels[i] = m.Month.Format("Jan")
	}
	chartW := components.CardInnerWidth(cw)
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Actual Savings Potential (last %d months)", savingsMonths),
		components.BarChart(actual, labels, t.Green, chartW, 8),
		cw,
	))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Actual vs Target", renderMonthTable(months), cw))
	return b.String()
}

// renderLatestGoal shows the newest snapshot's progress toward its target
// and the potential trend across all recorded predictions.
func (a App) renderLatestGoal(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	latest := a.snapshots[0] // newest first
	pct := 0.0
	if latest.TargetSavings > 0 {
		pct = latest.SavingsPotential / latest.TargetSavings
	}

	trend := make([]float64, len(a.snapshots))
	for i, s := range a.snapshots {
		trend[len(trend)-1-i] = s.SavingsPotential
	}
	if limit := components.CardInnerWidth(cw) - 18; len(trend) > limit && limit > 0 {
		trend = trend[len(trend)-limit:]
	}

	barW := components.CardInnerWidth(cw) - 24
	if barW < 10 {
		barW = 10
	}
	return labelStyle.Render("Goal progress     ") + components.ProgressBar(pct, barW) + "\n" +
		labelStyle.Render("Potential trend   ") + components.Sparkline(trend, t.Accent)
}

func renderMonthTable(months []model.MonthlySavings) string {
	t := theme.Active
	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	shortStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-10s %14s %14s %10s", "Month", "Actual", "Target", "Records")))
	for _, m := range months {
		b.WriteString("\n")
		if m.Count == 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%-10s %14s %14s %10s", m.Month.Format("Jan 2006"), "-", "-", "0")))
			continue
		}
		status := okStyle.Render(" ✓")
		if m.Actual < m.Target {
			status = shortStyle.Render(" ↓")
		}
		b.WriteString(cellStyle.Render(fmt.Sprintf("%-10s %14s %14s %10d",
			m.Month.Format("Jan 2006"), cli.FormatCurrency(m.Actual), cli.FormatCurrency(m.Target), m.Count)))
		b.WriteString(status)
	}
	return b.String()
}
