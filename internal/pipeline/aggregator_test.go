package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
)

func snap(t time.Time, potential, target, risk float64) model.Snapshot {
	return model.Snapshot{RecordedAt: t, SavingsPotential: potential, TargetSavings: target, RiskScore: risk}
}

func TestAggregateMonths(t *testing.T) {
	jan := time.Date(2026, 1, 10, 12, 0, 0, 0, time.Local)
	mar := time.Date(2026, 3, 5, 12, 0, 0, 0, time.Local)
	snaps := []model.Snapshot{
		snap(jan, 2800, 3200, 0.5),
		snap(jan.Add(48*time.Hour), 3000, 3200, 0.5),
		snap(mar, 3500, 3200, 0.4),
	}

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	until := time.Date(2026, 3, 31, 0, 0, 0, 0, time.Local)
	months := AggregateMonths(snaps, since, until)

	if len(months) != 3 {
		t.Fatalf("months = %d, want 3 (Feb filled)", len(months))
	}
	if months[0].Actual != 2900 || months[0].Count != 2 {
		t.Errorf("Jan = %+v, want actual 2900 from 2 snapshots", months[0])
	}
	if months[1].Count != 0 || months[1].Month.Month() != time.February {
		t.Errorf("Feb = %+v, want empty February", months[1])
	}
	if months[2].Actual != 3500 {
		t.Errorf("Mar actual = %.0f, want 3500", months[2].Actual)
	}
}

func TestSummarizeHistory(t *testing.T) {
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)
	snaps := []model.Snapshot{
		snap(base.AddDate(0, 1, 0), 3400, 3200, 0.6),
		snap(base, 2800, 3200, 0.8),
	}

	s := SummarizeHistory(snaps)
	if s.Snapshots != 2 {
		t.Fatalf("Snapshots = %d, want 2", s.Snapshots)
	}
	if !s.First.Equal(base) {
		t.Errorf("First = %v, want %v", s.First, base)
	}
	if s.BestPotential != 3400 {
		t.Errorf("BestPotential = %.0f, want 3400", s.BestPotential)
	}
	if s.LatestRiskScore != 0.6 {
		t.Errorf("LatestRiskScore = %v, want 0.6", s.LatestRiskScore)
	}
	if d := s.RiskScoreChange + 0.2; d > 1e-9 || d < -1e-9 {
		t.Errorf("RiskScoreChange = %v, want -0.2", s.RiskScoreChange)
	}
	if s.MonthsWithRecord != 2 || s.MonthsOnTarget != 1 {
		t.Errorf("months = %d on target of %d, want 1 of 2", s.MonthsOnTarget, s.MonthsWithRecord)
	}
}

func TestSummarizeHistory_Empty(t *testing.T) {
	if s := SummarizeHistory(nil); s.Snapshots != 0 {
		t.Fatalf("Snapshots = %d, want 0", s.Snapshots)
	}
}
