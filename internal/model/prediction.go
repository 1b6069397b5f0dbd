// Package model defines the prediction log records and the derived view types
// rendered by the dashboard.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// PredictionLog is the persisted document read by every prediction source.
// Records are append-only; readers always use the last one.
type PredictionLog struct {
	Predictions []Prediction `json:"predictions"`
}

// Latest returns the newest prediction, or false if the log is empty.
func (l *PredictionLog) Latest() (Prediction, bool) {
	if l == nil || len(l.Predictions) == 0 {
		return Prediction{}, false
	}
	return l.Predictions[len(l.Predictions)-1], true
}

// Prediction pairs a submitted financial profile with the model output computed for it.
type Prediction struct {
	ID        string               `json:"id,omitempty"`
	CreatedAt *time.Time           `json:"created_at,omitempty"`
	Input     UserFinancialProfile `json:"input"`
	Output    MLModelOutput        `json:"output"`
}

// UserFinancialProfile is the model input as stored in the prediction log.
// Field names follow the backend's training columns.
type UserFinancialProfile struct {
	Income     float64 `json:"Income"`
	Age        int     `json:"Age"`
	Dependents int     `json:"Dependents"`
	Occupation string  `json:"Occupation"`
	CityTier   string  `json:"City_Tier"`

	Rent          float64 `json:"Rent"`
	LoanRepayment float64 `json:"Loan_Repayment"`
	Insurance     float64 `json:"Insurance"`
	Groceries     float64 `json:"Groceries"`
	Transport     float64 `json:"Transport"`
	EatingOut     float64 `json:"Eating_Out"`
	Entertainment float64 `json:"Entertainment"`
	Utilities     float64 `json:"Utilities"`
	Healthcare    float64 `json:"Healthcare"`
	Education     float64 `json:"Education"`
	Miscellaneous float64 `json:"Miscellaneous"`

	DesiredSavingsPercentage float64 `json:"Desired_Savings_Percentage"`
	DisposableIncome         float64 `json:"Disposable_Income"`

	PotentialSavingsGroceries     float64 `json:"Potential_Savings_Groceries"`
	PotentialSavingsTransport     float64 `json:"Potential_Savings_Transport"`
	PotentialSavingsEatingOut     float64 `json:"Potential_Savings_Eating_Out"`
	PotentialSavingsEntertainment float64 `json:"Potential_Savings_Entertainment"`
	PotentialSavingsUtilities     float64 `json:"Potential_Savings_Utilities"`
	PotentialSavingsHealthcare    float64 `json:"Potential_Savings_Healthcare"`
	PotentialSavingsEducation     float64 `json:"Potential_Savings_Education"`
	PotentialSavingsMiscellaneous float64 `json:"Potential_Savings_Miscellaneous"`

	// Derived columns written by the prediction backend. Zero when absent.
	SavingsRate            float64 `json:"Savings_Rate,omitempty"`
	ActualSavingsPotential float64 `json:"Actual_Savings_Potential,omitempty"`
	EssentialExpenses      float64 `json:"Essential_Expenses,omitempty"`
	TotalExpenses          float64 `json:"Total_Expenses,omitempty"`
	FinancialStressScore   float64 `json:"Financial_Stress_Score,omitempty"`
}

// numericFields maps JSON keys to the float fields they fill.
func (p *UserFinancialProfile) numericFields() map[string]*float64 {
	return map[string]*float64{
		"Income":                          &p.Income,
		"Rent":                            &p.Rent,
		"Loan_Repayment":                  &p.LoanRepayment,
		"Insurance":                       &p.Insurance,
		"Groceries":                       &p.Groceries,
		"Transport":                       &p.Transport,
		"Eating_Out":                      &p.EatingOut,
		"Entertainment":                   &p.Entertainment,
		"Utilities":                       &p.Utilities,
		"Healthcare":                      &p.Healthcare,
		"Education":                       &p.Education,
		"Miscellaneous":                   &p.Miscellaneous,
		"Desired_Savings_Percentage":      &p.DesiredSavingsPercentage,
		"Disposable_Income":               &p.DisposableIncome,
		"Potential_Savings_Groceries":     &p.PotentialSavingsGroceries,
		"Potential_Savings_Transport":     &p.PotentialSavingsTransport,
		"Potential_Savings_Eating_Out":    &p.PotentialSavingsEatingOut,
		"Potential_Savings_Entertainment": &p.PotentialSavingsEntertainment,
		"Potential_Savings_Utilities":     &p.PotentialSavingsUtilities,
		"Potential_Savings_Healthcare":    &p.PotentialSavingsHealthcare,
		"Potential_Savings_Education":     &p.PotentialSavingsEducation,
		"Potential_Savings_Miscellaneous": &p.PotentialSavingsMiscellaneous,
		"Savings_Rate":                    &p.SavingsRate,
		"Actual_Savings_Potential":        &p.ActualSavingsPotential,
		"Essential_Expenses":              &p.EssentialExpenses,
		"Total_Expenses":                  &p.TotalExpenses,
		"Financial_Stress_Score":          &p.FinancialStressScore,
	}
}

// UnmarshalJSON decodes a profile leniently. Numeric fields accept numbers,
// numeric strings, or null; anything unparseable reads as zero.
func (p *UserFinancialProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = UserFinancialProfile{}
	for key, dst := range p.numericFields() {
		*dst = parseNumber(raw[key])
	}
	p.Age = int(parseNumber(raw["Age"]))
	p.Dependents = int(parseNumber(raw["Dependents"]))
	p.Occupation = parseString(raw["Occupation"])
	p.CityTier = parseString(raw["City_Tier"])
	return nil
}

// parseNumber handles float (1000.5), int (1000) and string ("1000") encodings.
func parseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return finite(v)
		}
	}
	return 0
}

func parseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// MLModelOutput holds the three model results returned by the prediction backend.
type MLModelOutput struct {
	SavingsModel   SavingsModelResult   `json:"savings_model"`
	AmountModel    AmountModelResult    `json:"amount_model"`
	MultiTaskModel MultiTaskModelResult `json:"multi_task_model"`
}

// SavingsModelResult is the binary savings-achievement classifier output.
type SavingsModelResult struct {
	CanAchieveSavings bool    `json:"can_achieve_savings"`
	Confidence        float64 `json:"confidence"` // 0.0-1.0
}

// AmountModelResult is the savings-amount regressor output.
type AmountModelResult struct {
	RecommendedSavings float64 `json:"recommended_savings"`
}

// MultiTaskModelResult is the combined classifier/regressor/risk model output.
type MultiTaskModelResult struct {
	CanAchieveSavings        bool    `json:"can_achieve_savings"`
	SavingsConfidence        float64 `json:"savings_confidence"`
	RecommendedSavingsAmount float64 `json:"recommended_savings_amount"`
	FinancialRisk            bool    `json:"financial_risk"`
	RiskScore                float64 `json:"risk_score"` // 0.0-1.0
}
