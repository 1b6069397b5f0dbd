package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/theirongolddev/fincast/internal/model"
)

// ErrNoExpenses is returned when there is nothing to chart.
var ErrNoExpenses = errors.New("report: no expenses to chart")

// RenderExpensePie writes the expense breakdown as a PNG pie chart.
func RenderExpensePie(w io.Writer, entries []model.ExpenseEntry, width, height int) error {
	if len(entries) == 0 {
		return ErrNoExpenses
	}

	var total float64
	for _, e := range entries {
		total += e.Value
	}

	values := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", e.Name, e.Value/total*100),
			Value: e.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(e.Color, "#")),
				StrokeColor: chart.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}

	pie := chart.PieChart{
		Width:  width,
		Height: height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
	}

	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("report: rendering pie chart: %w", err)
	}
	return nil
}
