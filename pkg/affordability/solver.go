// Package affordability solves for the maximum affordable home price under
// debt-to-income constraints.
package affordability

import (
	"fmt"
	"math"

	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/mathutil"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"go.uber.org/zap"
)

// Inputs holds the income, debt, and cost assumptions for an affordability
// search. PropertyTaxRate is percent of home value per year; InsuranceRate is
// per mille of home value per year; PMIRate is percent of loan amount per
// year. AnnualPropertyTax and AnnualInsurance, when positive, override their
// rate-derived counterparts.
type Inputs struct {
	AnnualIncome       float64 `json:"annualIncome"`
	MonthlyDebts       float64 `json:"monthlyDebts"`
	DownPaymentPercent float64 `json:"downPaymentPercent"`
	InterestRate       float64 `json:"interestRate"`
	LoanTermYears      int     `json:"loanTermYears"`
	PropertyTaxRate    float64 `json:"propertyTaxRate"`
	AnnualPropertyTax  float64 `json:"annualPropertyTax"`
	InsuranceRate      float64 `json:"insuranceRate"`
	AnnualInsurance    float64 `json:"annualInsurance"`
	HOAFees            float64 `json:"hoaFees"`
	PMIRate            float64 `json:"pmiRate"`
	FrontEndDTI        float64 `json:"dtiFrontEndPercent"`
	BackEndDTI         float64 `json:"dtiBackEndPercent"`
}

// Result holds the solved maximum price and the monthly cost breakdown at
// that price. A zero-valued Result indicates no price in the search range was
// affordable; that is a normal outcome, not an error.
type Result struct {
	MaxHomePrice         float64 `json:"maxHomePrice"`
	MonthlyPayment       float64 `json:"monthlyPayment"`
	PrincipalAndInterest float64 `json:"principalAndInterest"`
	PropertyTaxes        float64 `json:"propertyTaxes"`
	Insurance            float64 `json:"insurance"`
	PMI                  float64 `json:"pmi"`
	HOAFees              float64 `json:"hoaFees"`
	DTIRatio             float64 `json:"dtiRatio"`
	FrontEndDTI          float64 `json:"frontEndDTI"`
}

// monthlyCost is the cost breakdown for one candidate price.
type monthlyCost struct {
	total                float64
	principalAndInterest float64
	propertyTaxes        float64
	insurance            float64
	pmi                  float64
	loanAmount           float64
}

// MaxAffordablePrice binary-searches the highest home price whose total
// monthly housing cost fits within the binding debt-to-income constraint.
func MaxAffordablePrice(logger *zap.Logger, in Inputs) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	grossMonthlyIncome := in.AnnualIncome / constants.MonthsPerYear
	maxHousingPayment := grossMonthlyIncome * in.FrontEndDTI / constants.PercentageMultiplier
	maxDebtAfterHousing := grossMonthlyIncome*in.BackEndDTI/constants.PercentageMultiplier - in.MonthlyDebts
	availableForHousing := mathutil.Min(maxHousingPayment, maxDebtAfterHousing)

	if availableForHousing <= 0 {
		logger.Debug("no housing budget available after existing debts",
			zap.String("op", "affordability.MaxAffordablePrice"),
			zap.Float64("grossMonthlyIncome", grossMonthlyIncome),
			zap.Float64("monthlyDebts", in.MonthlyDebts),
		)
		return Result{}, nil
	}

	low := constants.PriceSearchFloor
	high := constants.PriceSearchCeiling
	iterations := 0

	for high-low > constants.PriceSearchTolerance {
		mid := math.Floor((low + high) / 2)
		cost := in.costAt(mid)
		iterations++

		if cost.loanAmount <= 0 {
			low = mid
			continue
		}
		if cost.total <= availableForHousing {
			low = mid
		} else {
			high = mid
		}
	}

	final := in.costAt(low)
	if final.total > availableForHousing {
		// Even the search floor is unaffordable.
		logger.Debug("no price within search range is affordable",
			zap.String("op", "affordability.MaxAffordablePrice"),
			zap.Float64("availableForHousing", availableForHousing),
			zap.Float64("floorCost", final.total),
		)
		return Result{}, nil
	}

	logger.Debug("affordability search converged",
		zap.String("op", "affordability.MaxAffordablePrice"),
		zap.Float64("maxHomePrice", low),
		zap.Int("iterations", iterations),
	)

	return Result{
		MaxHomePrice:         low,
		MonthlyPayment:       final.total,
		PrincipalAndInterest: final.principalAndInterest,
		PropertyTaxes:        final.propertyTaxes,
		Insurance:            final.insurance,
		PMI:                  final.pmi,
		HOAFees:              in.HOAFees,
		DTIRatio:             (final.total + in.MonthlyDebts) / grossMonthlyIncome * constants.PercentageMultiplier,
		FrontEndDTI:          final.total / grossMonthlyIncome * constants.PercentageMultiplier,
	}, nil
}

// costAt computes the monthly housing cost breakdown for one candidate price.
func (in Inputs) costAt(price float64) monthlyCost {
	// Cap the down payment so the loan amount stays positive.
	downPayment := mathutil.Min(price*in.DownPaymentPercent/constants.PercentageMultiplier,
		price*constants.DownPaymentCapRatio)
	loanAmount := price - downPayment

	cost := monthlyCost{loanAmount: loanAmount}
	if loanAmount <= 0 {
		return cost
	}

	cost.principalAndInterest = mortgage.MonthlyPayment(loanAmount, in.InterestRate,
		in.LoanTermYears*constants.MonthsPerYear)

	if in.AnnualPropertyTax > 0 {
		cost.propertyTaxes = in.AnnualPropertyTax / constants.MonthsPerYear
	} else {
		cost.propertyTaxes = price * in.PropertyTaxRate / constants.PercentageMultiplier / constants.MonthsPerYear
	}

	if in.AnnualInsurance > 0 {
		cost.insurance = in.AnnualInsurance / constants.MonthsPerYear
	} else {
		cost.insurance = price * in.InsuranceRate / constants.PerMilleMultiplier / constants.MonthsPerYear
	}

	effectiveDownPercent := downPayment / price * constants.PercentageMultiplier
	if effectiveDownPercent < constants.PMIThresholdPercent {
		cost.pmi = loanAmount * in.PMIRate / constants.PercentageMultiplier / constants.MonthsPerYear
	}

	cost.total = cost.principalAndInterest + cost.propertyTaxes + cost.insurance + cost.pmi + in.HOAFees
	return cost
}

func (in Inputs) validate() error {
	if in.AnnualIncome < 0 {
		return fmt.Errorf("invalid input: annual income must be non-negative, got %.2f", in.AnnualIncome)
	}
	if in.LoanTermYears <= 0 {
		return fmt.Errorf("invalid input: loan term must be positive, got %d years", in.LoanTermYears)
	}
	if in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100 {
		return fmt.Errorf("invalid input: down payment percent must be within [0, 100], got %.2f", in.DownPaymentPercent)
	}
	if in.InterestRate < 0 {
		return fmt.Errorf("invalid input: interest rate must be non-negative, got %.2f", in.InterestRate)
	}
	return nil
}
