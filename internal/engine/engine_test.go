package engine

import (
	"math"
	"testing"

	"github.com/openlistings/mortgage-engine/internal/config"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
)

func testConfiguration() config.Configuration {
	conf := config.Configuration{
		Scenarios: []config.Scenario{
			{
				Name: "first-home",
				Purchase: &config.Purchase{
					Price:              650000,
					DownPaymentPercent: 10,
					InterestRate:       4.84,
					TermYears:          25,
					PaymentFrequency:   "monthly",
					Location:           "Toronto, ON",
					FirstTimeBuyer:     true,
				},
				Affordability: &config.Affordability{
					AnnualIncome:       120000,
					MonthlyDebts:       500,
					DownPaymentPercent: 10,
					InterestRate:       5.0,
					LoanTermYears:      30,
				},
			},
		},
	}
	conf.ApplyDefaults()
	return conf
}

func TestGetReports(t *testing.T) {
	reports, err := GetReports(nil, testConfiguration())
	if err != nil {
		t.Fatalf("GetReports returned error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, expected 1", len(reports))
	}

	report := reports[0]
	if report.Scenario != "first-home" {
		t.Errorf("Scenario = %q, expected first-home", report.Scenario)
	}

	purchase := report.Purchase
	if purchase == nil {
		t.Fatal("expected purchase report")
	}
	if math.Abs(purchase.DownPayment-65000) > 0.001 {
		t.Errorf("DownPayment = %v, expected 65000", purchase.DownPayment)
	}
	if math.Abs(purchase.LoanAmount-585000) > 0.001 {
		t.Errorf("LoanAmount = %v, expected 585000", purchase.LoanAmount)
	}
	if purchase.PeriodicPayment <= 0 {
		t.Error("expected positive periodic payment")
	}

	// 10% down is in the 3.1% premium tier.
	expectedPremium := 585000 * 0.031
	if math.Abs(purchase.InsurancePremium-expectedPremium) > 0.001 {
		t.Errorf("InsurancePremium = %v, expected %v", purchase.InsurancePremium, expectedPremium)
	}

	// Toronto purchase pays municipal tax and gets both rebates.
	if purchase.LandTransferTax.Municipal == 0 {
		t.Error("expected municipal land transfer tax for Toronto")
	}
	if purchase.LandTransferTax.Rebate != 4000+4475 {
		t.Errorf("Rebate = %v, expected capped combined rebate 8475", purchase.LandTransferTax.Rebate)
	}

	expectedCash := purchase.DownPayment + purchase.LandTransferTax.NetPayable
	if math.Abs(purchase.CashRequired-expectedCash) > 0.001 {
		t.Errorf("CashRequired = %v, expected %v", purchase.CashRequired, expectedCash)
	}

	if purchase.Schedule.Periods != 25*12 {
		t.Errorf("Schedule.Periods = %d, expected 300", purchase.Schedule.Periods)
	}

	if report.Affordability == nil {
		t.Fatal("expected affordability result")
	}
	if report.Affordability.MaxHomePrice <= 0 {
		t.Error("expected positive max affordable price")
	}
}

func TestGetReportsFrequencyFlowsThrough(t *testing.T) {
	conf := testConfiguration()
	conf.Scenarios[0].Purchase.PaymentFrequency = "accelerated-biweekly"
	conf.Scenarios[0].Affordability = nil

	reports, err := GetReports(nil, conf)
	if err != nil {
		t.Fatalf("GetReports returned error: %v", err)
	}

	purchase := reports[0].Purchase
	if purchase.Frequency != mortgage.AcceleratedBiWeekly {
		t.Errorf("Frequency = %v, expected accelerated-biweekly", purchase.Frequency)
	}
	// Accelerated bi-weekly payments are half the monthly amount, while the
	// schedule runs 26 periods per year.
	if purchase.Schedule.Periods != 25*26 {
		t.Errorf("Schedule.Periods = %d, expected 650", purchase.Schedule.Periods)
	}
}

func TestGetReportsInvalidFrequency(t *testing.T) {
	conf := testConfiguration()
	conf.Scenarios[0].Purchase.PaymentFrequency = "fortnightly"

	if _, err := GetReports(nil, conf); err == nil {
		t.Error("expected error for invalid frequency, got nil")
	}
}

func TestGetReportsEmptyConfiguration(t *testing.T) {
	reports, err := GetReports(nil, config.Configuration{})
	if err != nil {
		t.Fatalf("GetReports returned error: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("got %d reports, expected 0", len(reports))
	}
}
