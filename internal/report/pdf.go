package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	headerColor       = [3]int{23, 37, 84}
	headerTextColor   = [3]int{255, 255, 255}
	sectionTitleColor = [3]int{23, 37, 84}
	bodyTextColor     = [3]int{40, 40, 40}
	lineColor         = [3]int{200, 200, 200}
)

// WritePDF renders the report as a one-page A4 PDF.
func WritePDF(w io.Writer, r *Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pr := message.NewPrinter(language.English)
	title := cases.Title(language.English)

	money := func(v float64) string { return pr.Sprintf("Rs. %.2f", v) }

	section := func(name string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, name)
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	row := func(label, value string) {
		pdf.CellFormat(70, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Financial Report"), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("  Report %s  |  %s", r.ID, r.GeneratedAt.Format("2006-01-02 15:04"))),
		"", 1, "L", true, 0, "")
	pdf.Ln(8)

	p := r.Profile
	section("Profile")
	row("Monthly Income", money(p.Income))
	row("Age", fmt.Sprintf("%d (%s)", p.Age, r.Features.AgeGroup))
	row("Dependents", fmt.Sprintf("%d", p.Dependents))
	row("Occupation", title.String(humanize(p.Occupation)))
	row("City Tier", humanize(p.CityTier))
	row("Income Bracket", r.Features.IncomeBracket)
	pdf.Ln(4)

	section("Expenses")
	for _, e := range r.Expenses {
		row(e.Name, money(e.Value))
	}
	row("Total", money(r.Features.TotalExpenses))
	row("Essential Share", pr.Sprintf("%.1f%%", r.Metrics.EssentialRatio*100))
	pdf.Ln(4)

	out := r.Output
	section("Prediction")
	row("Can Achieve Savings", yesNo(out.SavingsModel.CanAchieveSavings))
	row("Confidence", pr.Sprintf("%.2f%%", out.SavingsModel.Confidence*100))
	row("Recommended Savings", money(out.AmountModel.RecommendedSavings))
	row("Multi-task Recommendation", money(out.MultiTaskModel.RecommendedSavingsAmount))
	row("Financial Risk", fmt.Sprintf("%s (%s, score %.2f)", yesNo(out.MultiTaskModel.FinancialRisk),
		r.RiskLevel, out.MultiTaskModel.RiskScore))
	row("Desired Savings", pr.Sprintf("%.1f%% of income", p.DesiredSavingsPercentage))
	row("Disposable Income", money(p.DisposableIncome))

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr("Generated by fincast"), "", 0, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: writing pdf: %w", err)
	}
	return nil
}

// PDFBytes renders the report into memory.
func PDFBytes(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
