package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Snapshot is one recorded prediction in the local history.
type Snapshot struct {
	Hash               string    `json:"hash" yaml:"hash"`
	RecordedAt         time.Time `json:"recorded_at" yaml:"recorded_at"`
	Income             float64   `json:"income" yaml:"income"`
	TotalExpenses      float64   `json:"total_expenses" yaml:"total_expenses"`
	SavingsPotential   float64   `json:"savings_potential" yaml:"savings_potential"`
	TargetSavings      float64   `json:"target_savings" yaml:"target_savings"`
	RecommendedSavings float64   `json:"recommended_savings" yaml:"recommended_savings"`
	Confidence         float64   `json:"confidence" yaml:"confidence"`
	RiskScore          float64   `json:"risk_score" yaml:"risk_score"`
}

// MonthlySavings is one point on the savings progress chart.
type MonthlySavings struct {
	Month  time.Time `json:"month" yaml:"month"`
	Actual float64   `json:"actual" yaml:"actual"`
	Target float64   `json:"target" yaml:"target"`
	Count  int       `json:"count" yaml:"count"`
}

// PredictionHash identifies a prediction by content, so the same record
// fetched on every tick is stored once.
func PredictionHash(p Prediction) string {
	data, _ := json.Marshal(struct {
		Input  UserFinancialProfile `json:"input"`
		Output MLModelOutput        `json:"output"`
	}{p.Input, p.Output})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SnapshotOf builds the history record for a view.
func SnapshotOf(v *ViewModel, hash string, at time.Time) Snapshot {
	return Snapshot{
		Hash:               hash,
		RecordedAt:         at,
		Income:             v.Profile.Income,
		TotalExpenses:      v.Metrics.TotalExpenses,
		SavingsPotential:   v.Metrics.SavingsPotential,
		TargetSavings:      v.Profile.Income * v.Metrics.SavingsRate,
		RecommendedSavings: v.Output.AmountModel.RecommendedSavings,
		Confidence:         v.Output.SavingsModel.Confidence,
		RiskScore:          v.Output.MultiTaskModel.RiskScore,
	}
}
