// Package output provides utilities for formatting and displaying scenario reports.
package output

import (
	"fmt"
	"strings"

	"github.com/openlistings/mortgage-engine/internal/engine"
	"github.com/openlistings/mortgage-engine/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(reports []engine.Report) {
	fmt.Print(PrettyString(reports))
}

// PrettyString renders the human-readable report to a string.
func PrettyString(reports []engine.Report) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	for i, report := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		p.Fprintf(&b, "--- Results for scenario %s ---\n", report.Scenario)

		if purchase := report.Purchase; purchase != nil {
			p.Fprintf(&b, "Purchase price:        %s\n", format.Currency(purchase.Price))
			p.Fprintf(&b, "Down payment:          %s (%s)\n", format.Currency(purchase.DownPayment), format.Percent(purchase.DownPercent))
			p.Fprintf(&b, "Loan amount:           %s\n", format.Currency(purchase.LoanAmount))
			p.Fprintf(&b, "Payment (%s):     %s\n", purchase.Frequency, format.Currency(purchase.PeriodicPayment))
			p.Fprintf(&b, "Default insurance:     %s\n", format.Currency(purchase.InsurancePremium))
			p.Fprintf(&b, "Land transfer tax:     %s (rebate %s)\n",
				format.Currency(purchase.LandTransferTax.Provincial+purchase.LandTransferTax.Municipal),
				format.Currency(purchase.LandTransferTax.Rebate))
			p.Fprintf(&b, "Cash required:         %s\n", format.Currency(purchase.CashRequired))
			p.Fprintf(&b, "Total interest (%d periods): %s\n",
				purchase.Schedule.Periods, format.Currency(purchase.Schedule.TotalInterest))
		}

		if afford := report.Affordability; afford != nil {
			if afford.MaxHomePrice == 0 {
				b.WriteString("Affordability:         no price in range fits the debt-to-income limits\n")
			} else {
				p.Fprintf(&b, "Max affordable price:  %s\n", format.Currency(afford.MaxHomePrice))
				p.Fprintf(&b, "Monthly housing cost:  %s (P&I %s, tax %s, insurance %s, PMI %s)\n",
					format.Currency(afford.MonthlyPayment),
					format.Currency(afford.PrincipalAndInterest),
					format.Currency(afford.PropertyTaxes),
					format.Currency(afford.Insurance),
					format.Currency(afford.PMI))
				p.Fprintf(&b, "DTI at max price:      front-end %s, back-end %s\n",
					format.Percent(afford.FrontEndDTI), format.Percent(afford.DTIRatio))
			}
		}
	}

	return b.String()
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(reports []engine.Report) {
	fmt.Print(CsvString(reports))
}

// CsvString renders the report in comma-separated value format.
func CsvString(reports []engine.Report) string {
	var b strings.Builder
	b.WriteString(`"scenario","price","downPayment","loanAmount","periodicPayment","insurancePremium","landTransferTax","cashRequired","totalInterest","maxHomePrice","monthlyHousingCost","frontEndDTI","backEndDTI"` + "\n")

	for _, report := range reports {
		fmt.Fprintf(&b, "%q", report.Scenario)
		if purchase := report.Purchase; purchase != nil {
			fmt.Fprintf(&b, `,"%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f"`,
				purchase.Price, purchase.DownPayment, purchase.LoanAmount,
				purchase.PeriodicPayment, purchase.InsurancePremium,
				purchase.LandTransferTax.NetPayable, purchase.CashRequired,
				purchase.Schedule.TotalInterest)
		} else {
			b.WriteString(`,"","","","","","","",""`)
		}
		if afford := report.Affordability; afford != nil {
			fmt.Fprintf(&b, `,"%.2f","%.2f","%.2f","%.2f"`,
				afford.MaxHomePrice, afford.MonthlyPayment, afford.FrontEndDTI, afford.DTIRatio)
		} else {
			b.WriteString(`,"","","",""`)
		}
		b.WriteString("\n")
	}

	return b.String()
}
