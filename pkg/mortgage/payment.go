// Package mortgage provides mortgage payment and default-insurance calculations.
package mortgage

import (
	"fmt"
	"math"

	"github.com/openlistings/mortgage-engine/pkg/constants"
)

// Frequency identifies how often a mortgage payment is made.
type Frequency string

// Supported payment frequencies.
const (
	Weekly              Frequency = "weekly"
	AcceleratedWeekly   Frequency = "accelerated-weekly"
	BiWeekly            Frequency = "biweekly"
	AcceleratedBiWeekly Frequency = "accelerated-biweekly"
	SemiMonthly         Frequency = "semimonthly"
	Monthly             Frequency = "monthly"
	Quarterly           Frequency = "quarterly"
	Annually            Frequency = "annually"
)

// ParseFrequency converts a configuration string into a Frequency.
func ParseFrequency(value string) (Frequency, error) {
	switch Frequency(value) {
	case Weekly, AcceleratedWeekly, BiWeekly, AcceleratedBiWeekly,
		SemiMonthly, Monthly, Quarterly, Annually:
		return Frequency(value), nil
	case "":
		return Monthly, nil
	}
	return "", fmt.Errorf("invalid payment frequency %q", value)
}

// PaymentsPerYear returns the number of payment periods per year for the
// frequency. This drives the amortization schedule generator; FromMonthly
// uses a separate fixed multiplier table.
func (f Frequency) PaymentsPerYear() int {
	switch f {
	case Weekly, AcceleratedWeekly:
		return 52
	case BiWeekly, AcceleratedBiWeekly:
		return 26
	case SemiMonthly:
		return 24
	case Quarterly:
		return 4
	case Annually:
		return 1
	default:
		return constants.MonthsPerYear
	}
}

// FromMonthly converts a canonical monthly payment into this frequency using
// a fixed multiplier table. Accelerated variants are fixed fractions of the
// monthly amount, not re-derived from periods per year.
func (f Frequency) FromMonthly(monthly float64) float64 {
	switch f {
	case Weekly:
		return monthly * constants.MonthsPerYear / 52
	case AcceleratedWeekly:
		return monthly / 4
	case BiWeekly:
		return monthly * constants.MonthsPerYear / 26
	case AcceleratedBiWeekly:
		return monthly / 2
	case SemiMonthly:
		return monthly / 2
	case Quarterly:
		return monthly * 3
	case Annually:
		return monthly * constants.MonthsPerYear
	default:
		return monthly
	}
}

// MonthlyPayment calculates the canonical monthly payment for a loan using
// the standard amortization formula.
func MonthlyPayment(principal, annualRatePercent float64, termMonths int) float64 {
	if annualRatePercent == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicRate := annualRatePercent / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * periodicRate / discountFactor
}

// PeriodicPayment calculates the payment amount for a loan at the requested
// payment frequency. The monthly payment is computed first and then converted
// via the frequency's fixed multiplier table.
func PeriodicPayment(principal, annualRatePercent float64, termYears int, frequency Frequency) (float64, error) {
	if principal < 0 {
		return 0, fmt.Errorf("invalid input: principal must be non-negative, got %.2f", principal)
	}
	if termYears <= 0 {
		return 0, fmt.Errorf("invalid input: term must be positive, got %d years", termYears)
	}

	monthly := MonthlyPayment(principal, annualRatePercent, termYears*constants.MonthsPerYear)
	return frequency.FromMonthly(monthly), nil
}
