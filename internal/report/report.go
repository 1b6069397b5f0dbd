package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/pipeline"
)

// Report is a generated financial report.
type Report struct {
	ID          string                     `json:"id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Profile     model.UserFinancialProfile `json:"profile"`
	Output      model.MLModelOutput        `json:"output"`
	Features    model.Features             `json:"features"`
	Expenses    []model.ExpenseEntry       `json:"expenses"`
	Metrics     model.DashboardMetrics     `json:"metrics"`
	RiskLevel   string                     `json:"risk_level"`
}

// Generate validates f, runs the predictor and assembles the report.
func Generate(ctx context.Context, f Form, pred Predictor) (*Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	profile := f.Profile()
	out, err := pred.Predict(ctx, profile)
	if err != nil {
		return nil, err
	}
	return Build(profile, out, time.Now()), nil
}

// Build assembles a report from an already-predicted profile.
func Build(p model.UserFinancialProfile, out model.MLModelOutput, now time.Time) *Report {
	return &Report{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Profile:     p,
		Output:      out,
		Features:    model.DeriveFeatures(p),
		Expenses:    pipeline.NormalizeExpenses(p),
		Metrics:     model.ComputeMetrics(p, out),
		RiskLevel:   model.RiskLevelFor(out.MultiTaskModel.RiskScore),
	}
}

// Prediction returns the log record for this report.
func (r *Report) Prediction() model.Prediction {
	at := r.GeneratedAt
	return model.Prediction{
		ID:        r.ID,
		CreatedAt: &at,
		Input:     r.Profile,
		Output:    r.Output,
	}
}

// Appender persists predictions. source.FileSource implements it.
type Appender interface {
	Append(ctx context.Context, p model.Prediction) error
}

// Save appends the report's prediction to the log.
func (r *Report) Save(ctx context.Context, a Appender) error {
	return a.Append(ctx, r.Prediction())
}
