// Package constants provides shared constants for the mortgage-engine application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// PerMilleMultiplier is used for per-mille rate conversions (homeowners
	// insurance rates are quoted per thousand of home value)
	PerMilleMultiplier = 1000.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Affordability search constants
const (
	// PriceSearchFloor is the lowest candidate home price considered by the solver
	PriceSearchFloor = 50000.0

	// PriceSearchCeiling is the highest candidate home price considered by the solver
	PriceSearchCeiling = 5000000.0

	// PriceSearchTolerance is the binary search stopping tolerance in dollars
	PriceSearchTolerance = 100.0

	// DownPaymentCapRatio caps the down payment as a fraction of price so the
	// loan amount stays positive
	DownPaymentCapRatio = 0.99

	// PMIThresholdPercent is the down payment percentage below which PMI applies
	PMIThresholdPercent = 20.0
)

// Default assumption rates applied when a scenario omits them
const (
	// DefaultPropertyTaxRate is the annual property tax rate in percent of home value
	DefaultPropertyTaxRate = 1.0

	// DefaultInsuranceRate is the annual homeowners insurance rate per mille of home value
	DefaultInsuranceRate = 3.5

	// DefaultPMIRate is the annual PMI rate in percent of loan amount
	DefaultPMIRate = 0.5

	// DefaultFrontEndDTI is the default front-end debt-to-income limit in percent
	DefaultFrontEndDTI = 28.0

	// DefaultBackEndDTI is the default back-end debt-to-income limit in percent
	DefaultBackEndDTI = 36.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default scenario configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultHistoryLimit is the default number of saved calculations returned
	// by the history endpoint
	DefaultHistoryLimit = 50
)
