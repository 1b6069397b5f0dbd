package source

import (
	"context"

	"github.com/theirongolddev/fincast/internal/model"
)

// StaticSource always returns the built-in demo prediction.
type StaticSource struct{}

// Fetch returns a one-record log holding DemoPrediction.
func (StaticSource) Fetch(context.Context) (*model.PredictionLog, error) {
	return &model.PredictionLog{Predictions: []model.Prediction{DemoPrediction()}}, nil
}

// DemoPrediction is the fixed profile and model output shown in demo mode.
func DemoPrediction() model.Prediction {
	return model.Prediction{
		Input: model.UserFinancialProfile{
			Income:                   44637.25,
			Age:                      49,
			Dependents:               0,
			Occupation:               "Self_Employed",
			CityTier:                 "Tier_1",
			Rent:                     13391.17,
			Groceries:                6658.77,
			Utilities:                2911.79,
			Transport:                2636.97,
			Insurance:                2206.49,
			EatingOut:                1651.80,
			Healthcare:               1546.91,
			Entertainment:            1536.18,
			Miscellaneous:            831.53,
			DisposableIncome:         11265.63,
			DesiredSavingsPercentage: 13.89,
			SavingsRate:              0.1389,
			ActualSavingsPotential:   3200.0,
			EssentialExpenses:        22000.0,
			TotalExpenses:            30000.0,
			FinancialStressScore:     0.25,
		},
		Output: MockOutput(),
	}
}

// MockOutput is the canned model output used by the demo and the simulated predictor.
func MockOutput() model.MLModelOutput {
	return model.MLModelOutput{
		SavingsModel: model.SavingsModelResult{
			CanAchieveSavings: true,
			Confidence:        0.9999999403953552,
		},
		AmountModel: model.AmountModelResult{
			RecommendedSavings: 102038.546875,
		},
		MultiTaskModel: model.MultiTaskModelResult{
			CanAchieveSavings:        true,
			SavingsConfidence:        0.9999930262565613,
			RecommendedSavingsAmount: 113639.4375,
			FinancialRisk:            true,
			RiskScore:                0.8489888310432434,
		},
	}
}
