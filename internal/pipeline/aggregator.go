package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

// HistorySummary condenses the recorded snapshots for the summary view.
type HistorySummary struct {
	Snapshots        int
	First            time.Time
	Last             time.Time
	AvgPotential     float64
	AvgTarget        float64
	BestPotential    float64
	LatestRiskScore  float64
	RiskScoreChange  float64 // latest minus earliest
	MonthsOnTarget   int
	MonthsWithRecord int
}

// AggregateMonths buckets snapshots by calendar month (local time) and
// averages actual vs target savings. Months in [since, until] with no
// snapshots are filled with zeros. Result is oldest first.
func AggregateMonths(snaps []model.Snapshot, since, until time.Time) []model.MonthlySavings {
	filtered := FilterByTime(snaps, since, until)

	monthMap := make(map[string]*model.MonthlySavings)
	for _, s := range filtered {
		key := s.RecordedAt.Local().Format("2006-01")
		ms, ok := monthMap[key]
		if !ok {
			t, _ := time.ParseInLocation("2006-01", key, time.Local)
			ms = &model.MonthlySavings{Month: t}
			monthMap[key] = ms
		}
		ms.Actual += s.SavingsPotential
		ms.Target += s.TargetSavings
		ms.Count++
	}

	// Fill every month in the range so the chart shows gaps
	if !since.IsZero() && !until.IsZero() {
		m := monthStart(since.Local())
		end := monthStart(until.Local())
		for !m.After(end) {
			key := m.Format("2006-01")
			if _, ok := monthMap[key]; !ok {
				monthMap[key] = &model.MonthlySavings{Month: m}
			}
			m = m.AddDate(0, 1, 0)
		}
	}

	months := make([]model.MonthlySavings, 0, len(monthMap))
	for _, ms := range monthMap {
		if ms.Count > 0 {
			ms.Actual /= float64(ms.Count)
			ms.Target /= float64(ms.Count)
		}
		months = append(months, *ms)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	return months
}

// SummarizeHistory computes the headline figures over all snapshots.
func SummarizeHistory(snaps []model.Snapshot) HistorySummary {
	var sum HistorySummary
	if len(snaps) == 0 {
		return sum
	}

	sorted := make([]model.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	var potential, target float64
	for _, s := range sorted {
		potential += s.SavingsPotential
		target += s.TargetSavings
		if s.SavingsPotential > sum.BestPotential {
			sum.BestPotential = s.SavingsPotential
		}
	}

	n := float64(len(sorted))
	sum.Snapshots = len(sorted)
	sum.First = sorted[0].RecordedAt
	sum.Last = sorted[len(sorted)-1].RecordedAt
	sum.AvgPotential = potential / n
	sum.AvgTarget = target / n
	sum.LatestRiskScore = sorted[len(sorted)-1].RiskScore
	sum.RiskScoreChange = sum.LatestRiskScore - sorted[0].RiskScore

	for _, m := range AggregateMonths(sorted, time.Time{}, time.Time{}) {
		if m.Count == 0 {
			continue
		}
		sum.MonthsWithRecord++
		if m.Actual >= m.Target {
			sum.MonthsOnTarget++
		}
	}
	return sum
}

// FilterByTime returns snapshots recorded within [since, until).
// Zero bounds are open.
func FilterByTime(snaps []model.Snapshot, since, until time.Time) []model.Snapshot {
	if since.IsZero() && until.IsZero() {
		return snaps
	}

	var result []model.Snapshot
	for _, s := range snaps {
		if s.RecordedAt.IsZero() {
			continue
		}
		if !since.IsZero() && s.RecordedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !s.RecordedAt.Before(until) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
