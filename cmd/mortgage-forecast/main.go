package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openlistings/mortgage-engine/internal/config"
	"github.com/openlistings/mortgage-engine/internal/engine"
	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/openlistings/mortgage-engine/pkg/output"
	"github.com/openlistings/mortgage-engine/pkg/report"
	"github.com/openlistings/mortgage-engine/pkg/schedule"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	pdfPath := flag.String("pdf", "", "optional path to write an amortization schedule PDF for the first purchase scenario")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if outputFormat != constants.OutputFormatPretty && outputFormat != constants.OutputFormatCSV {
		logger.Fatal(fmt.Sprintf("invalid output format %s", outputFormat),
			zap.String("op", "main"),
		)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	reports, err := engine.GetReports(logger, *conf)
	if err != nil {
		logger.Fatal("failed to evaluate scenarios",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(reports)
	case constants.OutputFormatCSV:
		output.CsvFormat(reports)
	}

	if *pdfPath != "" {
		if err := writeSchedulePDF(*conf, *pdfPath); err != nil {
			logger.Fatal("failed to write schedule PDF",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("wrote amortization schedule PDF",
			zap.String("op", "main"),
			zap.String("path", *pdfPath),
		)
	}
}

// writeSchedulePDF renders the first purchase scenario's schedule to a PDF file.
func writeSchedulePDF(conf config.Configuration, path string) error {
	for _, scenario := range conf.Scenarios {
		purchase := scenario.Purchase
		if purchase == nil {
			continue
		}

		frequency, err := mortgage.ParseFrequency(purchase.PaymentFrequency)
		if err != nil {
			return err
		}
		loanAmount := purchase.Price * (1 - purchase.DownPaymentPercent/constants.PercentageMultiplier)
		rows, err := schedule.Generate(loanAmount, purchase.InterestRate, purchase.TermYears, frequency)
		if err != nil {
			return err
		}

		loan := report.Loan{
			Principal:         loanAmount,
			AnnualRatePercent: purchase.InterestRate,
			TermYears:         purchase.TermYears,
			Frequency:         frequency,
		}
		data, err := report.AmortizationPDF(scenario.Name, loan, rows, schedule.Summarize(rows))
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	}

	return fmt.Errorf("no purchase scenario found for PDF export")
}
