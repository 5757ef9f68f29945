// Package report renders amortization schedules as downloadable PDF reports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/openlistings/mortgage-engine/pkg/format"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/openlistings/mortgage-engine/pkg/schedule"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	rowHeight    = 6.0
)

// Loan describes the loan a schedule was generated for, for the report header.
type Loan struct {
	Principal         float64
	AnnualRatePercent float64
	TermYears         int
	Frequency         mortgage.Frequency
}

// AmortizationPDF renders a schedule and its summary into a PDF document.
func AmortizationPDF(title string, loan Loan, rows []schedule.Row, summary schedule.Summary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()

	if title == "" {
		title = "Amortization Schedule"
	}

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(contentWidth, 12, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(contentWidth, 6,
		fmt.Sprintf("%s at %.2f%% over %d years, %s payments",
			format.Currency(loan.Principal), loan.AnnualRatePercent, loan.TermYears, loan.Frequency),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6,
		fmt.Sprintf("Generated: %s", time.Now().Format("2 January 2006")),
		"", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(contentWidth, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	summaryLines := []string{
		fmt.Sprintf("Payments: %d", summary.Periods),
		fmt.Sprintf("Total paid: %s", format.Currency(summary.TotalPaid)),
		fmt.Sprintf("Total principal: %s", format.Currency(summary.TotalPrincipal)),
		fmt.Sprintf("Total interest: %s", format.Currency(summary.TotalInterest)),
	}
	for _, line := range summaryLines {
		pdf.CellFormat(contentWidth, 5.5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	writeTableHeader(pdf)
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		// Repeat the header after automatic page breaks.
		if pdf.GetY() > 297.0-marginBottom-rowHeight {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Arial", "", 9)
		}
		writeRow(pdf, row)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{20, 40, 40, 40, 40}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 239, 245)
	headers := []string{"Period", "Payment", "Principal", "Interest", "Balance"}
	for i, header := range headers {
		pdf.CellFormat(columnWidths[i], rowHeight, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func writeRow(pdf *fpdf.Fpdf, row schedule.Row) {
	pdf.CellFormat(columnWidths[0], rowHeight, fmt.Sprintf("%d", row.Period), "1", 0, "C", false, 0, "")
	pdf.CellFormat(columnWidths[1], rowHeight, format.Currency(row.Payment), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[2], rowHeight, format.Currency(row.Principal), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[3], rowHeight, format.Currency(row.Interest), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[4], rowHeight, format.Currency(row.Balance), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
}
