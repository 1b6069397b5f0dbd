package model

// Age groups and income brackets used by the savings models.
const (
	AgeYoungAdult    = "Young Adult"
	AgeMidCareer     = "Mid Career"
	AgePreRetirement = "Pre-Retirement"
	AgeSenior        = "Senior"

	IncomeLow      = "Low Income"
	IncomeLowerMid = "Lower-Mid"
	IncomeMiddle   = "Middle"
	IncomeUpperMid = "Upper-Mid"
)

// Features are the derived columns the prediction backend computes from a raw profile
// before running its models.
type Features struct {
	TotalExpenses          float64
	EssentialExpenses      float64
	ActualSavingsPotential float64
	SavingsRate            float64
	EssentialExpenseRatio  float64
	NonEssentialIncome     float64
	ExpenseEfficiency      float64
	DebtToIncomeRatio      float64
	FinancialStressScore   float64
	AgeGroup               string
	IncomeBracket          string
}

// DeriveFeatures computes the backend's derived columns for p.
// Ratios over income are zero when income is not positive.
func DeriveFeatures(p UserFinancialProfile) Features {
	f := Features{
		TotalExpenses: p.Rent + p.LoanRepayment + p.Insurance + p.Groceries + p.Transport +
			p.EatingOut + p.Entertainment + p.Utilities + p.Healthcare + p.Education + p.Miscellaneous,
		EssentialExpenses: p.Rent + p.LoanRepayment + p.Groceries + p.Transport + p.Utilities + p.Healthcare,
		ActualSavingsPotential: p.PotentialSavingsGroceries + p.PotentialSavingsTransport +
			p.PotentialSavingsEatingOut + p.PotentialSavingsEntertainment + p.PotentialSavingsUtilities +
			p.PotentialSavingsHealthcare + p.PotentialSavingsEducation + p.PotentialSavingsMiscellaneous,
		SavingsRate:   p.DesiredSavingsPercentage / 100,
		AgeGroup:      AgeGroupFor(p.Age),
		IncomeBracket: IncomeBracketFor(p.Income),
	}

	f.NonEssentialIncome = p.Income - f.EssentialExpenses
	if p.DisposableIncome > 0 {
		f.ExpenseEfficiency = f.ActualSavingsPotential / p.DisposableIncome
	}
	if p.Income > 0 {
		f.EssentialExpenseRatio = f.EssentialExpenses / p.Income
		f.DebtToIncomeRatio = p.LoanRepayment / p.Income
		f.FinancialStressScore = 1 - p.DisposableIncome/p.Income
	}
	return f
}

// AgeGroupFor buckets an age the same way the training data does.
func AgeGroupFor(age int) string {
	switch {
	case age < 25:
		return AgeYoungAdult
	case age < 40:
		return AgeMidCareer
	case age < 60:
		return AgePreRetirement
	default:
		return AgeSenior
	}
}

// IncomeBracketFor buckets a monthly income.
func IncomeBracketFor(income float64) string {
	switch {
	case income < 20000:
		return IncomeLow
	case income < 40000:
		return IncomeLowerMid
	case income < 70000:
		return IncomeMiddle
	default:
		return IncomeUpperMid
	}
}

// WithDerived returns a copy of p with the backend's derived columns filled in.
func WithDerived(p UserFinancialProfile) UserFinancialProfile {
	f := DeriveFeatures(p)
	p.SavingsRate = f.SavingsRate
	p.ActualSavingsPotential = f.ActualSavingsPotential
	p.EssentialExpenses = f.EssentialExpenses
	p.TotalExpenses = f.TotalExpenses
	p.FinancialStressScore = f.FinancialStressScore
	return p
}
