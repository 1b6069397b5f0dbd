package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// predictTimeout bounds one predictor call.
const predictTimeout = 30 * time.Second

// reportInputs are the raw form strings bound to huh fields.
type reportInputs struct {
	income, age, dependents string
	occupation, cityTier    string
	savingsPct              string
	expenses                map[string]*string
}

// reportExpenseFields lists the expense inputs in form order.
var reportExpenseFields = []struct{ key, label string }{
	{"rent", "Rent"},
	{"loan_repayment", "Loan Repayment"},
	{"insurance", "Insurance"},
	{"groceries", "Groceries"},
	{"transport", "Transport"},
	{"eating_out", "Eating Out"},
	{"entertainment", "Entertainment"},
	{"utilities", "Utilities"},
	{"healthcare", "Healthcare"},
	{"education", "Education"},
	{"miscellaneous", "Miscellaneous"},
}

type reportState struct {
	form    *huh.Form
	inputs  *reportInputs
	running bool
	result  *report.Report
	err     error
	notice  string
}

type reportDoneMsg struct {
	report *report.Report
	err    error
}

type reportExportMsg struct {
	paths []string
	err   error
}

type reportSavedMsg struct {
	err error
}

func newReportState() reportState {
	in := newReportInputs(report.DefaultForm())
	return reportState{form: newReportForm(in), inputs: in}
}

func newReportInputs(f report.Form) *reportInputs {
	in := &reportInputs{
		age:        strconv.Itoa(f.Age),
		dependents: strconv.Itoa(f.Dependents),
		savingsPct: strconv.FormatFloat(f.DesiredSavingsPercentage, 'f', -1, 64),
		expenses:   make(map[string]*string, len(reportExpenseFields)),
	}
	for _, e := range reportExpenseFields {
		v := ""
		in.expenses[e.key] = &v
	}
	return in
}

func validNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New("enter a number")
	}
	return nil
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseCount(s string) int {
	return int(parseAmount(s))
}

// toForm converts the raw inputs. Empty numbers read as zero; range checks
// are left to report.Form.Validate.
func (in *reportInputs) toForm() report.Form {
	return report.Form{
		Income:                   parseAmount(in.income),
		Age:                      parseCount(in.age),
		Dependents:               parseCount(in.dependents),
		Occupation:               in.occupation,
		CityTier:                 in.cityTier,
		Rent:                     parseAmount(*in.expenses["rent"]),
		LoanRepayment:            parseAmount(*in.expenses["loan_repayment"]),
		Insurance:                parseAmount(*in.expenses["insurance"]),
		Groceries:                parseAmount(*in.expenses["groceries"]),
		Transport:                parseAmount(*in.expenses["transport"]),
		EatingOut:                parseAmount(*in.expenses["eating_out"]),
		Entertainment:            parseAmount(*in.expenses["entertainment"]),
		Utilities:                parseAmount(*in.expenses["utilities"]),
		Healthcare:               parseAmount(*in.expenses["healthcare"]),
		Education:                parseAmount(*in.expenses["education"]),
		Miscellaneous:            parseAmount(*in.expenses["miscellaneous"]),
		DesiredSavingsPercentage: parseAmount(in.savingsPct),
	}
}

func newReportForm(in *reportInputs) *huh.Form {
	options := func(values []string) []huh.Option[string] {
		opts := make([]huh.Option[string], len(values))
		for i, v := range values {
			opts[i] = huh.NewOption(strings.ReplaceAll(v, "_", " "), v)
		}
		return opts
	}

	expenseInputs := make([]huh.Field, 0, len(reportExpenseFields))
	for _, e := range reportExpenseFields {
		expenseInputs = append(expenseInputs, huh.NewInput().
			Title(e.label).
			Placeholder("0").
			Validate(validNumber).
			Value(in.expenses[e.key]))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Monthly Income (₹)").Validate(validNumber).Value(&in.income),
			huh.NewInput().Title("Age").Validate(validNumber).Value(&in.age),
			huh.NewInput().Title("Dependents").Validate(validNumber).Value(&in.dependents),
			huh.NewSelect[string]().Title("Occupation").Options(options(report.Occupations)...).Value(&in.occupation),
			huh.NewSelect[string]().Title("City Tier").Options(options(report.CityTiers)...).Value(&in.cityTier),
		).Title("Personal Information"),
		huh.NewGroup(expenseInputs...).Title("Monthly Expenses (₹)"),
		huh.NewGroup(
			huh.NewInput().Title("Desired Savings (%)").Validate(validNumber).Value(&in.savingsPct),
		).Title("Savings Goal"),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

func generateCmd(f report.Form, pred report.Predictor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(predictTimeout)
		defer cancel()
		r, err := report.Generate(ctx, f, pred)
		return reportDoneMsg{report: r, err: err}
	}
}

// exportCmd writes the report PDF and the expense chart PNG to dir.
func exportCmd(r *report.Report, dir string) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return reportExportMsg{err: err}
		}
		base := filepath.Join(dir, "report-"+r.ID[:8])

		pdfPath := base + ".pdf"
		pdf, err := os.Create(pdfPath) //nolint:gosec // path built from the export dir
		if err != nil {
			return reportExportMsg{err: err}
		}
		err = report.WritePDF(pdf, r)
		if cerr := pdf.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return reportExportMsg{err: err}
		}
		paths := []string{pdfPath}

		if len(r.Expenses) > 0 {
			pngPath := base + "-expenses.png"
			png, err := os.Create(pngPath) //nolint:gosec // path built from the export dir
			if err != nil {
				return reportExportMsg{paths: paths, err: err}
			}
			err = report.RenderExpensePie(png, r.Expenses, 800, 600)
			if cerr := png.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return reportExportMsg{paths: paths, err: err}
			}
			paths = append(paths, pngPath)
		}
		return reportExportMsg{paths: paths}
	}
}

func saveCmd(r *report.Report, a report.Appender) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return reportSavedMsg{err: r.Save(ctx, a)}
	}
}

func (a App) updateReportForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.report.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.report.form = f
	}

	switch a.report.form.State {
	case huh.StateCompleted:
		a.report.form = nil
		a.report.running = true
		a.report.err = nil
		a.report.notice = ""
		return a, generateCmd(a.report.inputs.toForm(), a.opts.Predictor)
	case huh.StateAborted:
		// Start over with the values entered so far.
		a.report.form = newReportForm(a.report.inputs)
		a.activeTab = tabDashboard
		return a, a.report.form.Init()
	}
	return a, cmd
}

func (a App) updateReportResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportDoneMsg:
		a.report.running = false
		a.report.result = msg.report
		a.report.err = msg.err
		if msg.err != nil {
			// Return to the form so the user can correct it.
			a.report.form = newReportForm(a.report.inputs)
			return a, a.report.form.Init()
		}
	case reportExportMsg:
		if msg.err != nil {
			a.report.notice = "Export failed: " + msg.err.Error()
		} else {
			a.report.notice = "Exported " + strings.Join(msg.paths, ", ")
		}
	case reportSavedMsg:
		if msg.err != nil {
			a.report.notice = "Save failed: " + msg.err.Error()
		} else {
			a.report.notice = "Saved to prediction log"
			a.opts.Poller.Refresh()
		}
	}
	return a, nil
}

// reportKey handles keys on the results screen.
func (a App) reportKey(key string) (tea.Model, tea.Cmd, bool) {
	if a.report.running || a.report.result == nil {
		return a, nil, false
	}
	switch key {
	case "n":
		a.report.result = nil
		a.report.notice = ""
		a.report.form = newReportForm(a.report.inputs)
		return a, a.report.form.Init(), true
	case "e":
		a.report.notice = "Exporting..."
		return a, exportCmd(a.report.result, a.opts.ExportDir), true
	case "a":
		if a.opts.Appender == nil {
			a.report.notice = "Saving needs a file source (--source file)"
			return a, nil, true
		}
		a.report.notice = "Saving..."
		return a, saveCmd(a.report.result, a.opts.Appender), true
	}
	return a, nil, false
}

func (a App) renderReportTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	if a.report.err != nil {
		b.WriteString(components.ContentCard("", renderReportError(a.report.err), cw))
		b.WriteString("\n")
	}

	switch {
	case a.report.form != nil:
		b.WriteString(components.ContentCard("Financial Report", a.report.form.View(), cw))
	case a.report.running:
		b.WriteString(components.ContentCard("Financial Report",
			a.spinner.View()+mutedStyle.Render(" Running savings models..."), cw))
	case a.report.result != nil:
		b.WriteString(a.renderReportResult(a.report.result, cw))
	}
	return b.String()
}

func renderReportError(err error) string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var verr report.ValidationError
	if errors.As(err, &verr) {
		var b strings.Builder
		b.WriteString(errStyle.Bold(true).Render("Please fix the following:"))
		for _, e := range reportExpenseFieldsAndBasics() {
			if msg, ok := verr[e]; ok {
				b.WriteString("\n")
				b.WriteString(errStyle.Render("  • " + msg))
			}
		}
		return b.String()
	}
	var perr *report.PredictError
	if errors.As(err, &perr) {
		return errStyle.Render("Prediction failed: " + perr.Message)
	}
	return errStyle.Render("Prediction failed: " + err.Error())
}

// reportExpenseFieldsAndBasics lists validation keys in form order.
func reportExpenseFieldsAndBasics() []string {
	keys := []string{"income", "age", "dependents", "occupation", "city_tier"}
	for _, e := range reportExpenseFields {
		keys = append(keys, e.key)
	}
	return append(keys, "desired_savings_percentage")
}

func (a App) renderReportResult(r *report.Report, cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	noticeStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	out := r.Output
	var b strings.Builder

	cards := []components.Metric{
		{Label: "Can Achieve Savings", Value: cli.FormatYesNo(out.SavingsModel.CanAchieveSavings),
			Delta: cli.FormatPercent(out.SavingsModel.Confidence) + " confidence"},
		{Label: "Recommended Savings", Value: cli.FormatCurrency(out.AmountModel.RecommendedSavings), Delta: "per month"},
		{Label: "Risk Level", Value: r.RiskLevel, Delta: fmt.Sprintf("score %.2f", out.MultiTaskModel.RiskScore),
			Color: t.RiskColor(r.RiskLevel)},
		{Label: "Savings Potential", Value: cli.FormatCurrency(r.Features.ActualSavingsPotential),
			Delta: fmt.Sprintf("%.1f%% of goal", r.Metrics.SavingsGoalProgress)},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	f := r.Features
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-24s", label)) + valueStyle.Render(value) + "\n"
	}
	var feat strings.Builder
	feat.WriteString(row("Total expenses", cli.FormatCurrency(f.TotalExpenses)))
	feat.WriteString(row("Essential expenses", cli.FormatCurrency(f.EssentialExpenses)))
	feat.WriteString(row("Disposable income", cli.FormatCurrency(r.Profile.DisposableIncome)))
	feat.WriteString(row("Debt-to-income", cli.FormatPercent(f.DebtToIncomeRatio)))
	feat.WriteString(row("Financial stress score", fmt.Sprintf("%.2f", f.FinancialStressScore)))
	feat.WriteString(row("Age group", f.AgeGroup))
	feat.WriteString(row("Income bracket", f.IncomeBracket))

	halves := components.LayoutRow(cw, 2)
	left := components.ContentCard("Derived Features", strings.TrimSuffix(feat.String(), "\n"), halves[0])

	names := make([]string, len(r.Expenses))
	values := make([]float64, len(r.Expenses))
	colors := make([]string, len(r.Expenses))
	for i, e := range r.Expenses {
		names[i], values[i], colors[i] = e.Name, e.Value, e.Color
	}
	breakdown := labelStyle.Render("No expenses recorded")
	if len(r.Expenses) > 0 {
		breakdown = components.BreakdownBars(names, values, colors, components.CardInnerWidth(halves[1]))
	}
	right := components.ContentCard("Expense Breakdown", breakdown, halves[1])
	b.WriteString(components.CardRow([]string{left, right}))
	b.WriteString("\n")

	var footer strings.Builder
	footer.WriteString(labelStyle.Render(fmt.Sprintf("Report %s · %s", r.ID[:8], r.GeneratedAt.Format("2006-01-02 15:04"))))
	footer.WriteString("\n")
	footer.WriteString(labelStyle.Render("[e] export PDF + chart  [a] save to log  [n] new report"))
	if a.report.notice != "" {
		footer.WriteString("\n")
		footer.WriteString(noticeStyle.Render(a.report.notice))
	}
	b.WriteString(components.ContentCard("", footer.String(), cw))
	return b.String()
}
