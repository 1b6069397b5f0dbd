package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"
	"github.com/theirongolddev/fincast/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagHistoryMonths int
	flagHistoryLimit  int
	flagHistoryPrune  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show savings progress from recorded predictions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryMonths, "months", "m", 6, "Months to chart")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "l", 10, "Recent snapshots to list")
	historyCmd.Flags().IntVar(&flagHistoryPrune, "prune", 0, "Keep only the newest N snapshots")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	if flagHistoryMonths < 1 {
		flagHistoryMonths = 1
	}
	h, err := store.Open(store.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if flagHistoryPrune > 0 {
		n, err := h.Prune(flagHistoryPrune)
		if err != nil {
			return err
		}
		progress("  Pruned %d snapshots\n", n)
	}

	snaps, err := h.Recent(0)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("\n  No predictions recorded yet.")
		fmt.Println("  Run `fincast`, `fincast tui` or `fincast daemon` to start recording.")
		return nil
	}

	sum := pipeline.SummarizeHistory(snaps)
	now := time.Now()
	months := pipeline.AggregateMonths(snaps, now.AddDate(0, -(flagHistoryMonths-1), 0), now)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SAVINGS PROGRESS  Last %d months", flagHistoryMonths)))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Snapshots", cli.FormatNumber(int64(sum.Snapshots))},
			{"Recorded", fmt.Sprintf("%s to %s", sum.First.Format("2006-01-02"), sum.Last.Format("2006-01-02"))},
			{"Avg Potential", cli.FormatCurrency(sum.AvgPotential)},
			{"Avg Target", cli.FormatCurrency(sum.AvgTarget)},
			{"Best Potential", cli.FormatCurrency(sum.BestPotential)},
			{"Months on Target", fmt.Sprintf("%d of %d", sum.MonthsOnTarget, sum.MonthsWithRecord)},
			{"Risk Score", fmt.Sprintf("%.2f (%+.2f)", sum.LatestRiskScore, sum.RiskScoreChange)},
		},
	}))
	fmt.Println()

	actuals := make([]float64, len(months))
	rows := make([][]string, 0, len(months))
	for i, m := range months {
		actuals[i] = m.Actual
		status := "-"
		if m.Count > 0 {
			status = "↓"
			if m.Actual >= m.Target {
				status = "✓"
			}
		}
		rows = append(rows, []string{
			m.Month.Format("Jan 2006"),
			cli.FormatCurrency(m.Actual),
			cli.FormatCurrency(m.Target),
			status,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Monthly  " + cli.RenderSparkline(actuals) + "  " + sparkRange(actuals),
		Headers: []string{"Month", "Actual", "Target", ""},
		Rows:    rows,
	}))

	if flagHistoryLimit > 0 {
		recent := snaps
		if len(recent) > flagHistoryLimit {
			recent = recent[:flagHistoryLimit]
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recent Predictions",
			Headers: []string{"Recorded", "Income", "Potential", "Change", "Recommended", "Risk"},
			Rows:    recentRows(snaps, len(recent)),
		}))
	}
	return nil
}

// recentRows lists the newest n snapshots. snaps is newest first; each row's
// change is measured against the snapshot recorded before it.
func recentRows(snaps []model.Snapshot, n int) [][]string {
	rows := make([][]string, 0, n)
	for i, s := range snaps[:n] {
		change := "-"
		if i+1 < len(snaps) {
			change = cli.FormatDelta(s.SavingsPotential, snaps[i+1].SavingsPotential)
		}
		rows = append(rows, []string{
			s.RecordedAt.Local().Format("2006-01-02 15:04"),
			cli.FormatCurrency(s.Income),
			cli.FormatCurrency(s.SavingsPotential),
			change,
			cli.FormatCurrency(s.RecommendedSavings),
			fmt.Sprintf("%.2f", s.RiskScore),
		})
	}
	return rows
}

// sparkRange captions a sparkline with its low and high values.
func sparkRange(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return fmt.Sprintf("(%s to %s)", cli.FormatCompact(lo), cli.FormatCompact(hi))
}
