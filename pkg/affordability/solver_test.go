package affordability

import (
	"math"
	"testing"

	"github.com/openlistings/mortgage-engine/pkg/constants"
)

func baselineInputs() Inputs {
	return Inputs{
		AnnualIncome:       120000,
		MonthlyDebts:       500,
		DownPaymentPercent: 10,
		InterestRate:       5,
		LoanTermYears:      30,
		PropertyTaxRate:    constants.DefaultPropertyTaxRate,
		InsuranceRate:      constants.DefaultInsuranceRate,
		PMIRate:            constants.DefaultPMIRate,
		FrontEndDTI:        constants.DefaultFrontEndDTI,
		BackEndDTI:         constants.DefaultBackEndDTI,
	}
}

func TestMaxAffordablePriceEndToEnd(t *testing.T) {
	in := baselineInputs()
	result, err := MaxAffordablePrice(nil, in)
	if err != nil {
		t.Fatalf("MaxAffordablePrice returned error: %v", err)
	}

	if result.MaxHomePrice <= 0 {
		t.Fatalf("MaxHomePrice = %v, expected a positive price", result.MaxHomePrice)
	}

	// The $100 search granularity allows the ratios to land marginally over
	// the configured limits.
	if result.FrontEndDTI > in.FrontEndDTI+0.01 {
		t.Errorf("FrontEndDTI = %v, expected <= %v", result.FrontEndDTI, in.FrontEndDTI+0.01)
	}
	if result.DTIRatio > in.BackEndDTI+0.01 {
		t.Errorf("DTIRatio = %v, expected <= %v", result.DTIRatio, in.BackEndDTI+0.01)
	}

	// The solution is the binary-search fixed point: a price one tolerance
	// step higher must not be affordable.
	grossMonthlyIncome := in.AnnualIncome / 12
	available := math.Min(grossMonthlyIncome*in.FrontEndDTI/100,
		grossMonthlyIncome*in.BackEndDTI/100-in.MonthlyDebts)
	higher := in.costAt(result.MaxHomePrice + constants.PriceSearchTolerance + 1)
	if higher.total <= available {
		t.Errorf("price %v above solution still affordable (%v <= %v)",
			result.MaxHomePrice+constants.PriceSearchTolerance+1, higher.total, available)
	}

	breakdown := result.PrincipalAndInterest + result.PropertyTaxes + result.Insurance + result.PMI + result.HOAFees
	if math.Abs(breakdown-result.MonthlyPayment) > 0.01 {
		t.Errorf("component sum %v does not match MonthlyPayment %v", breakdown, result.MonthlyPayment)
	}
}

func TestMaxAffordablePriceInfeasible(t *testing.T) {
	in := baselineInputs()
	in.AnnualIncome = 24000
	in.MonthlyDebts = 2000 // debts alone exceed back-end headroom

	result, err := MaxAffordablePrice(nil, in)
	if err != nil {
		t.Fatalf("MaxAffordablePrice returned error: %v", err)
	}
	if result != (Result{}) {
		t.Errorf("expected all-zero result for infeasible inputs, got %+v", result)
	}
}

func TestMaxAffordablePriceMonotonicInIncome(t *testing.T) {
	in := baselineInputs()
	previous := 0.0
	for _, income := range []float64{60000, 90000, 120000, 180000, 250000} {
		in.AnnualIncome = income
		result, err := MaxAffordablePrice(nil, in)
		if err != nil {
			t.Fatalf("income %v: %v", income, err)
		}
		if result.MaxHomePrice < previous {
			t.Errorf("income %v: MaxHomePrice %v decreased from %v", income, result.MaxHomePrice, previous)
		}
		previous = result.MaxHomePrice
	}
}

func TestMaxAffordablePriceMonotonicInDebts(t *testing.T) {
	in := baselineInputs()
	previous := math.Inf(1)
	for _, debts := range []float64{0, 250, 500, 1000, 2000} {
		in.MonthlyDebts = debts
		result, err := MaxAffordablePrice(nil, in)
		if err != nil {
			t.Fatalf("debts %v: %v", debts, err)
		}
		if result.MaxHomePrice > previous {
			t.Errorf("debts %v: MaxHomePrice %v increased from %v", debts, result.MaxHomePrice, previous)
		}
		previous = result.MaxHomePrice
	}
}

func TestExplicitOverridesWinOverRates(t *testing.T) {
	in := baselineInputs()
	in.AnnualPropertyTax = 2400
	in.AnnualInsurance = 1200

	cost := in.costAt(400000)
	if math.Abs(cost.propertyTaxes-200) > 0.001 {
		t.Errorf("propertyTaxes = %v, expected 200 from explicit annual amount", cost.propertyTaxes)
	}
	if math.Abs(cost.insurance-100) > 0.001 {
		t.Errorf("insurance = %v, expected 100 from explicit annual amount", cost.insurance)
	}
}

func TestPMIOnlyBelowTwentyPercentDown(t *testing.T) {
	in := baselineInputs()

	in.DownPaymentPercent = 25
	if cost := in.costAt(400000); cost.pmi != 0 {
		t.Errorf("pmi = %v with 25%% down, expected 0", cost.pmi)
	}

	in.DownPaymentPercent = 10
	if cost := in.costAt(400000); cost.pmi <= 0 {
		t.Errorf("pmi = %v with 10%% down, expected positive", cost.pmi)
	}
}

func TestDownPaymentCappedAtNinetyNinePercent(t *testing.T) {
	in := baselineInputs()
	in.DownPaymentPercent = 100

	cost := in.costAt(400000)
	if cost.loanAmount <= 0 {
		t.Errorf("loanAmount = %v, expected positive after 99%% cap", cost.loanAmount)
	}
	if math.Abs(cost.loanAmount-4000) > 0.001 {
		t.Errorf("loanAmount = %v, expected 4000 (1%% of price)", cost.loanAmount)
	}
}

func TestMaxAffordablePriceInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"Negative income", func(in *Inputs) { in.AnnualIncome = -1 }},
		{"Zero term", func(in *Inputs) { in.LoanTermYears = 0 }},
		{"Down payment above 100", func(in *Inputs) { in.DownPaymentPercent = 101 }},
		{"Negative rate", func(in *Inputs) { in.InterestRate = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baselineInputs()
			tt.mutate(&in)
			if _, err := MaxAffordablePrice(nil, in); err == nil {
				t.Error("expected invalid input error, got nil")
			}
		})
	}
}
