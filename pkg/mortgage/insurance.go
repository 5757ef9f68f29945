package mortgage

// Default-insurance (CMHC) premium rates by down payment tier. Evaluated
// top-down; first match wins.
const (
	insuranceExemptPercent = 20.0
	midTierPercent         = 15.0
	lowTierPercent         = 10.0

	midTierRate  = 0.028
	lowTierRate  = 0.031
	baseTierRate = 0.04
)

// InsurancePremium calculates the mortgage default-insurance premium for a
// loan. A down payment of 20% or more is exempt.
func InsurancePremium(downPaymentPercent, loanAmount float64) float64 {
	switch {
	case downPaymentPercent >= insuranceExemptPercent:
		return 0
	case downPaymentPercent >= midTierPercent:
		return loanAmount * midTierRate
	case downPaymentPercent >= lowTierPercent:
		return loanAmount * lowTierRate
	default:
		return loanAmount * baseTierRate
	}
}
