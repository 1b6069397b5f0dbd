package model

import "time"

// ExpenseEntry is one slice of the expense breakdown chart.
type ExpenseEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// ViewModel is the render-ready dashboard state built from a single prediction.
type ViewModel struct {
	PredictionID string               `json:"prediction_id,omitempty"`
	Hash         string               `json:"hash"`
	Profile      UserFinancialProfile `json:"profile"`
	Output       MLModelOutput        `json:"output"`
	Expenses     []ExpenseEntry       `json:"expenses"`
	Metrics      DashboardMetrics     `json:"metrics"`
	BuiltAt      time.Time            `json:"built_at"`
}

// DashboardMetrics are the display figures derived from profile and model output.
type DashboardMetrics struct {
	TotalExpenses       float64 `json:"total_expenses"`
	SavingsPotential    float64 `json:"savings_potential"`
	SavingsGoalProgress float64 `json:"savings_goal_progress"` // percent of recommended savings
	SavingsRate         float64 `json:"savings_rate"`          // 0.0-1.0
	EssentialRatio      float64 `json:"essential_ratio"`       // 0.0-1.0
	RiskLevel           string  `json:"risk_level"`
	AgeGroup            string  `json:"age_group"`
}

// Risk levels reported for the multi-task model's risk score.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskLevelFor buckets a 0-1 risk score.
func RiskLevelFor(score float64) string {
	switch {
	case score < 0.3:
		return RiskLow
	case score < 0.7:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ComputeMetrics derives the dashboard figures. Values the backend already
// stored on the profile take precedence over recomputed ones.
func ComputeMetrics(p UserFinancialProfile, out MLModelOutput) DashboardMetrics {
	f := DeriveFeatures(p)

	total := p.TotalExpenses
	if total == 0 {
		total = f.TotalExpenses
	}
	essential := p.EssentialExpenses
	if essential == 0 {
		essential = f.EssentialExpenses
	}
	potential := p.ActualSavingsPotential
	if potential == 0 {
		potential = f.ActualSavingsPotential
	}
	rate := p.SavingsRate
	if rate == 0 {
		rate = f.SavingsRate
	}

	m := DashboardMetrics{
		TotalExpenses:    total,
		SavingsPotential: potential,
		SavingsRate:      rate,
		RiskLevel:        RiskLevelFor(out.MultiTaskModel.RiskScore),
		AgeGroup:         f.AgeGroup,
	}
	if rec := out.AmountModel.RecommendedSavings; rec > 0 {
		m.SavingsGoalProgress = potential / rec * 100
	}
	if total > 0 {
		m.EssentialRatio = essential / total
	}
	return m
}
