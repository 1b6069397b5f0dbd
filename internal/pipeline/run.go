// Package pipeline fetches the prediction log and normalizes the newest
// record into the dashboard view model.
package pipeline

import (
	"context"
	"time"

	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/source"
)

// Kind is the outcome of one pipeline run.
type Kind int

const (
	Ready Kind = iota + 1
	FetchFailed
	ParseFailed
	NoDataAvailable
)

func (k Kind) String() string {
	switch k {
	case Ready:
		return "ready"
	case FetchFailed:
		return "fetch_failed"
	case ParseFailed:
		return "parse_failed"
	case NoDataAvailable:
		return "no_data"
	default:
		return "unknown"
	}
}

// Result is either a view (Kind == Ready) or an error. Never both.
type Result struct {
	Kind Kind
	View *model.ViewModel
	Err  error
}

// OK reports whether the run produced a view.
func (r Result) OK() bool { return r.Kind == Ready && r.View != nil }

// Message is the single user-facing error line, empty when ready.
func (r Result) Message() string {
	switch r.Kind {
	case Ready:
		return ""
	case FetchFailed:
		return "Failed to fetch user data"
	case ParseFailed:
		return "Received malformed prediction data"
	case NoDataAvailable:
		return "No prediction data available"
	default:
		return "Unknown error"
	}
}

// Run performs one fetch-and-normalize pass against src.
func Run(ctx context.Context, src source.Source) Result {
	log, err := src.Fetch(ctx)
	if err != nil {
		if source.KindOf(err) == source.KindParse {
			return Result{Kind: ParseFailed, Err: err}
		}
		return Result{Kind: FetchFailed, Err: err}
	}
	return FromLog(log, time.Now())
}

// FromLog builds the result for an already-fetched log.
func FromLog(log *model.PredictionLog, now time.Time) Result {
	latest, ok := log.Latest()
	if !ok {
		return Result{Kind: NoDataAvailable, Err: ErrNoData}
	}
	return Result{Kind: Ready, View: BuildView(latest, now)}
}

// BuildView projects a prediction into the dashboard view model.
func BuildView(p model.Prediction, now time.Time) *model.ViewModel {
	return &model.ViewModel{
		PredictionID: p.ID,
		Hash:         model.PredictionHash(p),
		Profile:      p.Input,
		Output:       p.Output,
		Expenses:     NormalizeExpenses(p.Input),
		Metrics:      model.ComputeMetrics(p.Input, p.Output),
		BuiltAt:      now,
	}
}
