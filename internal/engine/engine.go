// Package engine composes the calculators into per-scenario reports.
package engine

import (
	"fmt"

	"github.com/openlistings/mortgage-engine/internal/config"
	"github.com/openlistings/mortgage-engine/pkg/affordability"
	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/landtransfer"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/openlistings/mortgage-engine/pkg/schedule"
	"go.uber.org/zap"
)

// Report is the full calculation result for one scenario.
type Report struct {
	Scenario      string                `json:"scenario"`
	Purchase      *PurchaseReport       `json:"purchase,omitempty"`
	Affordability *affordability.Result `json:"affordability,omitempty"`
}

// PurchaseReport is the cost picture for a specific property purchase.
type PurchaseReport struct {
	Price            float64             `json:"price"`
	DownPayment      float64             `json:"downPayment"`
	DownPercent      float64             `json:"downPaymentPercent"`
	LoanAmount       float64             `json:"loanAmount"`
	Frequency        mortgage.Frequency  `json:"paymentFrequency"`
	PeriodicPayment  float64             `json:"periodicPayment"`
	InsurancePremium float64             `json:"insurancePremium"`
	LandTransferTax  landtransfer.Result `json:"landTransferTax"`
	Schedule         schedule.Summary    `json:"schedule"`
	CashRequired     float64             `json:"cashRequired"`
}

// GetReports evaluates every scenario in the configuration.
func GetReports(logger *zap.Logger, conf config.Configuration) ([]Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reports := make([]Report, 0, len(conf.Scenarios))
	for _, scenario := range conf.Scenarios {
		report := Report{Scenario: scenario.Name}

		if scenario.Purchase != nil {
			purchase, err := evaluatePurchase(logger, scenario.Name, *scenario.Purchase)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			report.Purchase = purchase
		}

		if scenario.Affordability != nil {
			result, err := affordability.MaxAffordablePrice(logger, affordabilityInputs(*scenario.Affordability))
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			report.Affordability = &result
		}

		logger.Debug("evaluated scenario",
			zap.String("op", "engine.GetReports"),
			zap.String("scenario", scenario.Name),
		)
		reports = append(reports, report)
	}

	return reports, nil
}

func evaluatePurchase(logger *zap.Logger, name string, purchase config.Purchase) (*PurchaseReport, error) {
	frequency, err := mortgage.ParseFrequency(purchase.PaymentFrequency)
	if err != nil {
		return nil, err
	}

	downPayment := purchase.Price * purchase.DownPaymentPercent / constants.PercentageMultiplier
	loanAmount := purchase.Price - downPayment

	payment, err := mortgage.PeriodicPayment(loanAmount, purchase.InterestRate, purchase.TermYears, frequency)
	if err != nil {
		return nil, err
	}

	premium := mortgage.InsurancePremium(purchase.DownPaymentPercent, loanAmount)
	tax := landtransfer.CalculateForLocation(purchase.Price, purchase.FirstTimeBuyer, purchase.Location)

	rows, err := schedule.Generate(loanAmount, purchase.InterestRate, purchase.TermYears, frequency)
	if err != nil {
		return nil, err
	}
	summary := schedule.Summarize(rows)

	logger.Debug("evaluated purchase",
		zap.String("op", "engine.evaluatePurchase"),
		zap.String("scenario", name),
		zap.Float64("loanAmount", loanAmount),
		zap.Float64("periodicPayment", payment),
	)

	return &PurchaseReport{
		Price:            purchase.Price,
		DownPayment:      downPayment,
		DownPercent:      purchase.DownPaymentPercent,
		LoanAmount:       loanAmount,
		Frequency:        frequency,
		PeriodicPayment:  payment,
		InsurancePremium: premium,
		LandTransferTax:  tax,
		Schedule:         summary,
		CashRequired:     downPayment + tax.NetPayable,
	}, nil
}

func affordabilityInputs(in config.Affordability) affordability.Inputs {
	return affordability.Inputs{
		AnnualIncome:       in.AnnualIncome,
		MonthlyDebts:       in.MonthlyDebts,
		DownPaymentPercent: in.DownPaymentPercent,
		InterestRate:       in.InterestRate,
		LoanTermYears:      in.LoanTermYears,
		PropertyTaxRate:    in.PropertyTaxRate,
		AnnualPropertyTax:  in.AnnualPropertyTax,
		InsuranceRate:      in.InsuranceRate,
		AnnualInsurance:    in.AnnualInsurance,
		HOAFees:            in.HOAFees,
		PMIRate:            in.PMIRate,
		FrontEndDTI:        in.FrontEndDTI,
		BackEndDTI:         in.BackEndDTI,
	}
}
