package pipeline

import "github.com/theirongolddev/fincast/internal/model"

// Category maps a profile expense field to its chart label and color.
type Category struct {
	Label string
	Color string
	Value func(p model.UserFinancialProfile) float64
}

// Categories is the fixed expense table. Its order is the chart order.
var Categories = []Category{
	{"Rent", "#8884d8", func(p model.UserFinancialProfile) float64 { return p.Rent }},
	{"Groceries", "#82ca9d", func(p model.UserFinancialProfile) float64 { return p.Groceries }},
	{"Utilities", "#ffc658", func(p model.UserFinancialProfile) float64 { return p.Utilities }},
	{"Transport", "#ff7300", func(p model.UserFinancialProfile) float64 { return p.Transport }},
	{"Insurance", "#00ff00", func(p model.UserFinancialProfile) float64 { return p.Insurance }},
	{"Eating Out", "#ff0000", func(p model.UserFinancialProfile) float64 { return p.EatingOut }},
	{"Healthcare", "#8dd1e1", func(p model.UserFinancialProfile) float64 { return p.Healthcare }},
	{"Entertainment", "#d084d0", func(p model.UserFinancialProfile) float64 { return p.Entertainment }},
	{"Miscellaneous", "#87d068", func(p model.UserFinancialProfile) float64 { return p.Miscellaneous }},
	{"Loan Repayment", "#a4de6c", func(p model.UserFinancialProfile) float64 { return p.LoanRepayment }},
	{"Education", "#ffbb28", func(p model.UserFinancialProfile) float64 { return p.Education }},
}

// NormalizeExpenses projects the profile's expense fields into chart entries.
// Zero and negative values are dropped.
func NormalizeExpenses(p model.UserFinancialProfile) []model.ExpenseEntry {
	entries := make([]model.ExpenseEntry, 0, len(Categories))
	for _, c := range Categories {
		v := c.Value(p)
		if v <= 0 {
			continue
		}
		entries = append(entries, model.ExpenseEntry{Name: c.Label, Value: v, Color: c.Color})
	}
	return entries
}

// ColorFor returns the chart color for a category label.
func ColorFor(label string) string {
	for _, c := range Categories {
		if c.Label == label {
			return c.Color
		}
	}
	return "#888888"
}
