// Package config defines the scenario configuration structures and includes
// functions for loading, defaulting, and validating them.
package config

import (
	"fmt"
	"io"

	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for mortgage-engine.
type Configuration struct {
	Scenarios []Scenario
	Defaults  Assumptions   `yaml:"defaults,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Assumptions holds the cost assumption rates shared by scenarios that do not
// override them.
type Assumptions struct {
	PropertyTaxRate float64 `yaml:"propertyTaxRate,omitempty"` // percent of home value per year
	InsuranceRate   float64 `yaml:"insuranceRate,omitempty"`   // per mille of home value per year
	PMIRate         float64 `yaml:"pmiRate,omitempty"`         // percent of loan amount per year
	FrontEndDTI     float64 `yaml:"frontEndDTI,omitempty"`
	BackEndDTI      float64 `yaml:"backEndDTI,omitempty"`
}

// Scenario describes one purchase and/or affordability situation to evaluate.
type Scenario struct {
	Name          string
	Purchase      *Purchase      `yaml:"purchase,omitempty"`
	Affordability *Affordability `yaml:"affordability,omitempty"`
}

// Purchase holds the parameters for evaluating a specific property purchase.
type Purchase struct {
	Price              float64
	DownPaymentPercent float64
	InterestRate       float64
	TermYears          int
	PaymentFrequency   string
	Location           string
	FirstTimeBuyer     bool
}

// Affordability holds the income and cost assumptions for a maximum-price
// search. Zero-valued rates are filled from the configuration defaults.
type Affordability struct {
	AnnualIncome       float64
	MonthlyDebts       float64
	DownPaymentPercent float64
	InterestRate       float64
	LoanTermYears      int
	PropertyTaxRate    float64
	AnnualPropertyTax  float64
	InsuranceRate      float64
	AnnualInsurance    float64
	HOAFees            float64
	PMIRate            float64
	FrontEndDTI        float64
	BackEndDTI         float64
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return unmarshalConfiguration(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from an
// in-memory reader, as used by the HTTP API.
func LoadConfigurationFromReader(reader io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return unmarshalConfiguration(v)
}

func unmarshalConfiguration(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset assumption rates from the configuration defaults
// block, and unset defaults from the built-in constants.
func (conf *Configuration) ApplyDefaults() {
	if conf.Defaults.PropertyTaxRate == 0 {
		conf.Defaults.PropertyTaxRate = constants.DefaultPropertyTaxRate
	}
	if conf.Defaults.InsuranceRate == 0 {
		conf.Defaults.InsuranceRate = constants.DefaultInsuranceRate
	}
	if conf.Defaults.PMIRate == 0 {
		conf.Defaults.PMIRate = constants.DefaultPMIRate
	}
	if conf.Defaults.FrontEndDTI == 0 {
		conf.Defaults.FrontEndDTI = constants.DefaultFrontEndDTI
	}
	if conf.Defaults.BackEndDTI == 0 {
		conf.Defaults.BackEndDTI = constants.DefaultBackEndDTI
	}

	for i := range conf.Scenarios {
		afford := conf.Scenarios[i].Affordability
		if afford == nil {
			continue
		}
		if afford.PropertyTaxRate == 0 && afford.AnnualPropertyTax == 0 {
			afford.PropertyTaxRate = conf.Defaults.PropertyTaxRate
		}
		if afford.InsuranceRate == 0 && afford.AnnualInsurance == 0 {
			afford.InsuranceRate = conf.Defaults.InsuranceRate
		}
		if afford.PMIRate == 0 {
			afford.PMIRate = conf.Defaults.PMIRate
		}
		if afford.FrontEndDTI == 0 {
			afford.FrontEndDTI = conf.Defaults.FrontEndDTI
		}
		if afford.BackEndDTI == 0 {
			afford.BackEndDTI = conf.Defaults.BackEndDTI
		}
	}
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Warnings do not prevent evaluation; hard errors surface
// later from the calculators themselves.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(conf.Scenarios) == 0 {
		warnings = append(warnings, "Configuration contains no scenarios")
	}

	seen := make(map[string]struct{})
	for _, scenario := range conf.Scenarios {
		if scenario.Name == "" {
			warnings = append(warnings, "Scenario with empty name")
		}
		if _, duplicate := seen[scenario.Name]; duplicate {
			warnings = append(warnings, fmt.Sprintf("Duplicate scenario name '%s'", scenario.Name))
		}
		seen[scenario.Name] = struct{}{}

		if scenario.Purchase == nil && scenario.Affordability == nil {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' has neither a purchase nor an affordability block", scenario.Name))
		}

		if purchase := scenario.Purchase; purchase != nil {
			if purchase.Price <= 0 {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' purchase price is not positive", scenario.Name))
			}
			if purchase.DownPaymentPercent < 5 {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' down payment below 5%% is typically not insurable", scenario.Name))
			}
			if purchase.InterestRate > 25 {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' interest rate %.2f%% looks unusually high", scenario.Name, purchase.InterestRate))
			}
			if purchase.TermYears > 35 {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' amortization beyond 35 years is not offered by lenders", scenario.Name))
			}
			if _, err := mortgage.ParseFrequency(purchase.PaymentFrequency); err != nil {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s': %v", scenario.Name, err))
			}
		}

		if afford := scenario.Affordability; afford != nil {
			if afford.AnnualIncome <= 0 {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' affordability has no income", scenario.Name))
			}
			if afford.BackEndDTI < afford.FrontEndDTI {
				warnings = append(warnings, fmt.Sprintf("Scenario '%s' back-end DTI below front-end DTI", scenario.Name))
			}
		}
	}

	return warnings
}
