// Package schedule generates period-by-period loan amortization schedules.
package schedule

import (
	"fmt"
	"math"

	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the remaining balance below which the early-stop variant
// considers the loan paid off.
const BalanceEpsilon = 0.01

// Row is one payment period in an amortization schedule.
type Row struct {
	Period    int     `json:"period"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// Summary aggregates a schedule. Totals are accumulated with decimal
// arithmetic so cents do not drift over long schedules.
type Summary struct {
	Periods        int     `json:"periods"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalPrincipal float64 `json:"totalPrincipal"`
	TotalInterest  float64 `json:"totalInterest"`
}

// Generate produces the full amortization schedule for a loan. The periodic
// rate is derived from the frequency's payments per year, not from the fixed
// multiplier table the payment calculator uses.
func Generate(principal, annualRatePercent float64, termYears int, frequency mortgage.Frequency) ([]Row, error) {
	return generate(principal, annualRatePercent, termYears, frequency, false)
}

// GenerateUntilPaid behaves like Generate but stops as soon as the remaining
// balance drops to a cent or less.
func GenerateUntilPaid(principal, annualRatePercent float64, termYears int, frequency mortgage.Frequency) ([]Row, error) {
	return generate(principal, annualRatePercent, termYears, frequency, true)
}

func generate(principal, annualRatePercent float64, termYears int, frequency mortgage.Frequency, stopWhenPaid bool) ([]Row, error) {
	if principal < 0 {
		return nil, fmt.Errorf("invalid input: principal must be non-negative, got %.2f", principal)
	}
	if termYears <= 0 {
		return nil, fmt.Errorf("invalid input: term must be positive, got %d years", termYears)
	}
	if annualRatePercent < 0 {
		return nil, fmt.Errorf("invalid input: rate must be non-negative, got %.2f", annualRatePercent)
	}

	paymentsPerYear := frequency.PaymentsPerYear()
	periods := termYears * paymentsPerYear
	periodicRate := annualRatePercent / constants.PercentageMultiplier / float64(paymentsPerYear)

	var payment float64
	if periodicRate == 0 {
		payment = principal / float64(periods)
	} else {
		power := math.Pow(1.00+periodicRate, float64(periods))
		payment = principal * periodicRate * power / (power - 1.00)
	}

	rows := make([]Row, 0, periods)
	balance := principal

	for period := 1; period <= periods; period++ {
		interest := balance * periodicRate
		principalPart := payment - interest
		rowPayment := payment

		// The final payment covers exactly the remaining balance; otherwise
		// machine error leaves a residual of a fraction of a cent.
		if principalPart > balance || period == periods {
			principalPart = balance
			rowPayment = principalPart + interest
		}

		balance = math.Max(0, balance-principalPart)
		rows = append(rows, Row{
			Period:    period,
			Payment:   rowPayment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})

		if stopWhenPaid && balance <= BalanceEpsilon {
			break
		}
	}

	return rows, nil
}

// Summarize aggregates a schedule's totals.
func Summarize(rows []Row) Summary {
	totalPaid := decimal.Zero
	totalPrincipal := decimal.Zero
	totalInterest := decimal.Zero

	for _, row := range rows {
		totalPaid = totalPaid.Add(decimal.NewFromFloat(row.Payment).Round(2))
		totalPrincipal = totalPrincipal.Add(decimal.NewFromFloat(row.Principal).Round(2))
		totalInterest = totalInterest.Add(decimal.NewFromFloat(row.Interest).Round(2))
	}

	return Summary{
		Periods:        len(rows),
		TotalPaid:      totalPaid.InexactFloat64(),
		TotalPrincipal: totalPrincipal.InexactFloat64(),
		TotalInterest:  totalInterest.InexactFloat64(),
	}
}
