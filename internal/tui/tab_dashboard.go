package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderDashboardTab(cw, h int) string {
	switch a.current.State {
	case poller.Loading:
		return a.renderDashboardLoading(cw, h)
	case poller.Error:
		return a.renderDashboardError(cw, h)
	}

	v := a.currentView()
	if v == nil {
		return a.renderDashboardLoading(cw, h)
	}
	return a.renderDashboardReady(v, cw)
}

func (a App) renderDashboardLoading(cw, h int) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fincast"))
	b.WriteString(subtitleStyle.Render(" · Financial Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading your financial data..."))

	return lipgloss.Place(cw, h, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderDashboardError replaces the whole dashboard; no stale data is shown.
func (a App) renderDashboardError(cw, h int) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 4)

	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := errStyle.Render("Error: "+a.errorMessage()) + "\n\n" +
		hintStyle.Render(fmt.Sprintf("Retrying every %s. Press r to retry now.", a.opts.Poller.Interval()))

	return lipgloss.Place(cw, h, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderDashboardReady(v *model.ViewModel, cw int) string {
	t := theme.Active
	p, out, m := v.Profile, v.Output, v.Metrics
	var b strings.Builder

	// Row 1: metric cards
	cards := []components.Metric{
		{Label: "Monthly Income", Value: cli.FormatCurrency(p.Income), Delta: "Disposable " + cli.FormatCurrency(p.DisposableIncome)},
		{Label: "Total Expenses", Value: cli.FormatCurrency(m.TotalExpenses), Delta: cli.FormatPercent(m.EssentialRatio) + " essential"},
		{Label: "Savings Potential", Value: cli.FormatCurrency(m.SavingsPotential), Delta: fmt.Sprintf("%.1f%% of goal", m.SavingsGoalProgress),
			Color: t.GoalColor(m.SavingsGoalProgress)},
		{Label: "Recommended Savings", Value: cli.FormatCurrency(out.AmountModel.RecommendedSavings), Delta: "per month"},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: expense breakdown + AI insights
	var halves []int
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	} else {
		halves = components.LayoutRow(cw, 2)
	}

	breakdown := a.renderExpenseBreakdown(v, components.CardInnerWidth(halves[0]))
	insights := renderInsights(out, m, components.CardInnerWidth(halves[1]))

	left := components.ContentCard("Expense Breakdown", breakdown, halves[0])
	right := components.ContentCard("AI Insights", insights, halves[1])
	if a.isCompactLayout() {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	} else {
		b.WriteString(components.CardRow([]string{left, right}))
	}
	b.WriteString("\n")

	// Row 3: quick stats
	b.WriteString(components.ContentCard("Quick Stats", renderQuickStats(p, m), cw))
	return b.String()
}

func (a App) renderExpenseBreakdown(v *model.ViewModel, w int) string {
	t := theme.Active
	if len(v.Expenses) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No expenses recorded")
	}

	names := make([]string, len(v.Expenses))
	values := make([]float64, len(v.Expenses))
	colors := make([]string, len(v.Expenses))
	for i, e := range v.Expenses {
		names[i] = e.Name
		values[i] = e.Value
		colors[i] = e.Color
	}
	return components.BreakdownBars(names, values, colors, w)
}

func renderInsights(out model.MLModelOutput, m model.DashboardMetrics, w int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	riskStyle := lipgloss.NewStyle().Foreground(t.RiskColor(m.RiskLevel)).Background(t.Surface).Bold(true)

	achieve := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true).Render("Achievable")
	if !out.SavingsModel.CanAchieveSavings {
		achieve = lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true).Render("At risk")
	}

	barW := w - 22
	if barW < 8 {
		barW = 8
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Savings goal:     ") + achieve + "\n")
	b.WriteString(components.ScoreBar("Confidence", out.SavingsModel.Confidence, string(t.Accent), 16, barW) + "\n")
	b.WriteString(components.ScoreBar("Risk score", out.MultiTaskModel.RiskScore,
		components.ColorForRisk(out.MultiTaskModel.RiskScore), 16, barW) + "\n")
	b.WriteString(labelStyle.Render("Risk level:       ") + riskStyle.Render(m.RiskLevel) + "\n")
	b.WriteString(labelStyle.Render("Financial risk:   ") + valueStyle.Render(cli.FormatYesNo(out.MultiTaskModel.FinancialRisk)) + "\n")
	b.WriteString(labelStyle.Render("Multi-task rec.:  ") + valueStyle.Render(cli.FormatCurrency(out.MultiTaskModel.RecommendedSavingsAmount)))
	return b.String()
}

func renderQuickStats(p model.UserFinancialProfile, m model.DashboardMetrics) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sep := labelStyle.Render("   │   ")

	stat := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}

	return stat("Savings rate", cli.FormatPercent(m.SavingsRate)) + sep +
		stat("Age group", m.AgeGroup) + sep +
		stat("Dependents", fmt.Sprintf("%d", p.Dependents)) + sep +
		stat("Occupation", orDash(p.Occupation)) + sep +
		stat("City", orDash(p.CityTier))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "_", " ")
}
