package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/source"

	"github.com/spf13/cobra"
)

var (
	reportForm       = report.DefaultForm()
	flagReportPDF    string
	flagReportPNG    string
	flagReportSave   bool
	flagReportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a savings prediction for a financial profile",
	Long: "Validate the profile given by flags, run the savings models and print the results.\n" +
		"Optionally export a PDF report and expense chart, or append the prediction to the log.",
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.Float64Var(&reportForm.Income, "income", 0, "Monthly income")
	f.IntVar(&reportForm.Age, "age", reportForm.Age, "Age")
	f.IntVar(&reportForm.Dependents, "dependents", 0, "Number of dependents")
	f.StringVar(&reportForm.Occupation, "occupation", "", "Self_Employed, Employed, Student or Retired")
	f.StringVar(&reportForm.CityTier, "city-tier", "", "Tier_1, Tier_2 or Tier_3")
	f.Float64Var(&reportForm.Rent, "rent", 0, "Monthly rent")
	f.Float64Var(&reportForm.LoanRepayment, "loan-repayment", 0, "Monthly loan repayment")
	f.Float64Var(&reportForm.Insurance, "insurance", 0, "Monthly insurance")
	f.Float64Var(&reportForm.Groceries, "groceries", 0, "Monthly groceries")
	f.Float64Var(&reportForm.Transport, "transport", 0, "Monthly transport")
	f.Float64Var(&reportForm.EatingOut, "eating-out", 0, "Monthly eating out")
	f.Float64Var(&reportForm.Entertainment, "entertainment", 0, "Monthly entertainment")
	f.Float64Var(&reportForm.Utilities, "utilities", 0, "Monthly utilities")
	f.Float64Var(&reportForm.Healthcare, "healthcare", 0, "Monthly healthcare")
	f.Float64Var(&reportForm.Education, "education", 0, "Monthly education")
	f.Float64Var(&reportForm.Miscellaneous, "miscellaneous", 0, "Monthly miscellaneous")
	f.Float64Var(&reportForm.DesiredSavingsPercentage, "savings-pct", reportForm.DesiredSavingsPercentage, "Desired savings as percent of income")

	f.StringVar(&flagReportPDF, "pdf", "", "Write a PDF report to this path")
	f.StringVar(&flagReportPNG, "png", "", "Write the expense pie chart to this path")
	f.BoolVar(&flagReportSave, "save", false, "Append the prediction to the local prediction log")
	f.StringVarP(&flagReportFormat, "format", "f", "text", "Output format: text or json")

	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pred, err := buildPredictor(cfg)
	if err != nil {
		return err
	}

	progress("  Running savings models...\n")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	r, err := report.Generate(ctx, reportForm, pred)
	var verr report.ValidationError
	if errors.As(err, &verr) {
		printValidation(verr)
		return errors.New("invalid profile")
	}
	if err != nil {
		return err
	}

	if flagReportFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else {
		printReport(r)
	}

	if flagReportPDF != "" {
		if err := writeFile(flagReportPDF, func(f *os.File) error { return report.WritePDF(f, r) }); err != nil {
			return err
		}
		progress("  Wrote %s\n", flagReportPDF)
	}
	if flagReportPNG != "" {
		err := writeFile(flagReportPNG, func(f *os.File) error {
			return report.RenderExpensePie(f, r.Expenses, 800, 600)
		})
		if errors.Is(err, report.ErrNoExpenses) {
			progress("  No expenses to chart; skipped %s\n", flagReportPNG)
		} else if err != nil {
			return err
		} else {
			progress("  Wrote %s\n", flagReportPNG)
		}
	}
	if flagReportSave {
		path := cfg.Source.File
		if path == "" {
			path = config.DefaultLogFile()
		}
		if err := r.Save(ctx, source.NewFileSource(path)); err != nil {
			return fmt.Errorf("saving prediction: %w", err)
		}
		progress("  Appended prediction %s to %s\n", r.ID, path)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // output path chosen by the local user
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func printValidation(verr report.ValidationError) {
	fields := make([]string, 0, len(verr))
	for f := range verr {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, cli.RenderError("Please fix the following:"))
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, "    --%s: %s\n", flagName(f), verr[f])
	}
}

// flagName maps a validation key to its command-line flag.
func flagName(field string) string {
	switch field {
	case "desired_savings_percentage":
		return "savings-pct"
	}
	out := []byte(field)
	for i, c := range out {
		if c == '_' {
			out[i] = '-'
		}
	}
	return string(out)
}

func printReport(r *report.Report) {
	out := r.Output
	f := r.Features

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAVINGS PREDICTION"))
	fmt.Println()

	rows := [][]string{
		{"Can Achieve Savings", cli.FormatYesNo(out.SavingsModel.CanAchieveSavings)},
		{"Confidence", cli.FormatPercent(out.SavingsModel.Confidence)},
		{"Recommended Savings", cli.FormatCurrency(out.AmountModel.RecommendedSavings)},
		{"Multi-task Recommendation", cli.FormatCurrency(out.MultiTaskModel.RecommendedSavingsAmount)},
		{"Financial Risk", fmt.Sprintf("%s (%s, %.2f)", cli.FormatYesNo(out.MultiTaskModel.FinancialRisk),
			r.RiskLevel, out.MultiTaskModel.RiskScore)},
		{"---"},
		{"Total Expenses", cli.FormatCurrency(f.TotalExpenses)},
		{"Essential Expenses", cli.FormatCurrency(f.EssentialExpenses)},
		{"Savings Potential", cli.FormatCurrency(f.ActualSavingsPotential)},
		{"Goal Progress", fmt.Sprintf("%.1f%%", r.Metrics.SavingsGoalProgress)},
		{"Debt-to-Income", cli.FormatPercent(f.DebtToIncomeRatio)},
		{"Age Group", f.AgeGroup},
		{"Income Bracket", f.IncomeBracket},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Result", "Value"},
		Rows:    rows,
	}))
}
