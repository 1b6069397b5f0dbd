// Package report validates a financial profile form, runs it through a
// savings predictor and exports the result.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/theirongolddev/fincast/internal/model"
)

// Occupations accepted by the prediction models.
var Occupations = []string{"Self_Employed", "Employed", "Student", "Retired"}

// CityTiers accepted by the prediction models.
var CityTiers = []string{"Tier_1", "Tier_2", "Tier_3"}

// Form is the user-entered profile before derived fields are filled in.
type Form struct {
	Income     float64
	Age        int
	Dependents int
	Occupation string
	CityTier   string

	Rent          float64
	LoanRepayment float64
	Insurance     float64
	Groceries     float64
	Transport     float64
	EatingOut     float64
	Entertainment float64
	Utilities     float64
	Healthcare    float64
	Education     float64
	Miscellaneous float64

	DesiredSavingsPercentage float64
}

// DefaultForm returns the initial form values.
func DefaultForm() Form {
	return Form{Age: 30, DesiredSavingsPercentage: 10}
}

// ValidationError collects every invalid field with its message.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "report: invalid form: " + strings.Join(parts, "; ")
}

// Validate checks every field and returns a ValidationError listing all
// violations, or nil.
func (f Form) Validate() error {
	errs := ValidationError{}

	switch {
	case !finite(f.Income):
		errs["income"] = "Income must be a number"
	case f.Income < 0:
		errs["income"] = "Income must be positive"
	}
	switch {
	case f.Age < 18:
		errs["age"] = "Age must be at least 18"
	case f.Age > 100:
		errs["age"] = "Age must be realistic"
	}
	if f.Dependents < 0 {
		errs["dependents"] = "Dependents cannot be negative"
	}
	if strings.TrimSpace(f.Occupation) == "" {
		errs["occupation"] = "Please select an occupation"
	}
	if strings.TrimSpace(f.CityTier) == "" {
		errs["city_tier"] = "Please select a city tier"
	}

	for key, e := range f.expenses() {
		switch {
		case !finite(e.value):
			errs[key] = e.label + " must be a number"
		case e.value < 0:
			errs[key] = e.label + " cannot be negative"
		}
	}

	switch {
	case !finite(f.DesiredSavingsPercentage):
		errs["desired_savings_percentage"] = "Savings percentage must be a number"
	case f.DesiredSavingsPercentage < 0:
		errs["desired_savings_percentage"] = "Savings percentage cannot be negative"
	case f.DesiredSavingsPercentage > 100:
		errs["desired_savings_percentage"] = "Savings percentage cannot exceed 100"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type expenseField struct {
	label string
	value float64
}

func (f Form) expenses() map[string]expenseField {
	return map[string]expenseField{
		"rent":           {"Rent", f.Rent},
		"loan_repayment": {"Loan repayment", f.LoanRepayment},
		"insurance":      {"Insurance", f.Insurance},
		"groceries":      {"Groceries", f.Groceries},
		"transport":      {"Transport", f.Transport},
		"eating_out":     {"Eating out", f.EatingOut},
		"entertainment":  {"Entertainment", f.Entertainment},
		"utilities":      {"Utilities", f.Utilities},
		"healthcare":     {"Healthcare", f.Healthcare},
		"education":      {"Education", f.Education},
		"miscellaneous":  {"Miscellaneous", f.Miscellaneous},
	}
}

// Profile converts the form to a model profile. Disposable income is income
// less total expenses; derived columns are filled in.
func (f Form) Profile() model.UserFinancialProfile {
	p := model.UserFinancialProfile{
		Income:                   f.Income,
		Age:                      f.Age,
		Dependents:               f.Dependents,
		Occupation:               f.Occupation,
		CityTier:                 f.CityTier,
		Rent:                     f.Rent,
		LoanRepayment:            f.LoanRepayment,
		Insurance:                f.Insurance,
		Groceries:                f.Groceries,
		Transport:                f.Transport,
		EatingOut:                f.EatingOut,
		Entertainment:            f.Entertainment,
		Utilities:                f.Utilities,
		Healthcare:               f.Healthcare,
		Education:                f.Education,
		Miscellaneous:            f.Miscellaneous,
		DesiredSavingsPercentage: f.DesiredSavingsPercentage,
	}
	p.DisposableIncome = p.Income - model.DeriveFeatures(p).TotalExpenses
	return model.WithDerived(p)
}
