package advisor

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fincast/internal/model"
)

const promptTemplate = `
You are a Personal Finance Advisor chatbot.
The user recently submitted this financial profile:

{{.Profile}}

Previous conversation:
{{.History}}

Now the user is asking:
"{{.Question}}"

Always keep your replies within 100 words and give a helpful, friendly, and personalized answer based on their data and predictions.
`

// NoPredictionReply is returned when the log holds no prediction to advise on.
const NoPredictionReply = "I don't have any saved financial data yet. Please make a savings prediction first!"

// DescribePrediction renders the profile and model results as prompt context.
func DescribePrediction(p model.Prediction) string {
	in, out := p.Input, p.Output
	var b strings.Builder

	fmt.Fprintf(&b, "Income: ₹%.2f\n", in.Income)
	fmt.Fprintf(&b, "Age: %d\n", in.Age)
	fmt.Fprintf(&b, "Occupation: %s\n", orNA(in.Occupation))
	fmt.Fprintf(&b, "City Tier: %s\n", orNA(in.CityTier))
	fmt.Fprintf(&b, "Dependents: %d\n", in.Dependents)

	b.WriteString("\nMonthly Expenses:\n")
	for _, e := range []struct {
		name  string
		value float64
	}{
		{"Rent", in.Rent},
		{"Groceries", in.Groceries},
		{"Transport", in.Transport},
		{"Eating Out", in.EatingOut},
		{"Utilities", in.Utilities},
		{"Healthcare", in.Healthcare},
		{"Education", in.Education},
		{"Miscellaneous", in.Miscellaneous},
	} {
		fmt.Fprintf(&b, "%s: ₹%.2f\n", e.name, e.value)
	}

	b.WriteString("\nSavings Goals:\n")
	fmt.Fprintf(&b, "Desired Savings %%: %.2f%%\n", in.DesiredSavingsPercentage)
	fmt.Fprintf(&b, "Disposable Income: ₹%.2f\n", in.DisposableIncome)
	b.WriteString("Potential Savings Breakdown:\n")
	for _, e := range []struct {
		name  string
		value float64
	}{
		{"Groceries", in.PotentialSavingsGroceries},
		{"Transport", in.PotentialSavingsTransport},
		{"Eating Out", in.PotentialSavingsEatingOut},
		{"Utilities", in.PotentialSavingsUtilities},
		{"Healthcare", in.PotentialSavingsHealthcare},
		{"Education", in.PotentialSavingsEducation},
		{"Miscellaneous", in.PotentialSavingsMiscellaneous},
	} {
		fmt.Fprintf(&b, " - %s: ₹%.2f\n", e.name, e.value)
	}

	b.WriteString("\nPrediction Results:\n")
	fmt.Fprintf(&b, "Can Achieve Savings: %s\n", yesNo(out.SavingsModel.CanAchieveSavings))
	fmt.Fprintf(&b, "Confidence: %.2f%%\n", out.SavingsModel.Confidence*100)
	fmt.Fprintf(&b, "Recommended Monthly Savings: ₹%.2f\n", out.AmountModel.RecommendedSavings)
	fmt.Fprintf(&b, "Financial Risk: %s (%s)\n", yesNo(out.MultiTaskModel.FinancialRisk),
		model.RiskLevelFor(out.MultiTaskModel.RiskScore))
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
