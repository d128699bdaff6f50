// Package config assembles the engine, parser, and report configurations
// from CLI flag values.
package config

import (
	"fmt"

	"lending-reconciliation-service/internal/matchers"
	"lending-reconciliation-service/internal/parsers"
	"lending-reconciliation-service/internal/reporter"
	"lending-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// CreateMatcherConfig builds the engine configuration from CLI overrides.
// Zero values leave the calibrated defaults untouched.
func CreateMatcherConfig(minConfidence, amountTolerance float64, singleWindow, groupWindow int) (*matchers.Config, error) {
	cfg := matchers.DefaultConfig()

	if minConfidence > 0 {
		cfg.MinConfidence = minConfidence
	}
	if amountTolerance > 0 {
		cfg.AmountTolerance = decimal.NewFromFloat(amountTolerance)
	}
	if singleWindow > 0 {
		cfg.SingleWindowDays = singleWindow
	}
	if groupWindow > 0 {
		cfg.GroupWindowDays = groupWindow
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher configuration: %w", err)
	}
	return cfg, nil
}

// CreateEntryFormat resolves the --entry-format flag, layering the column
// aliases we see across statement exports onto the standard format.
func CreateEntryFormat(name string) (*parsers.EntryFormat, error) {
	format := parsers.EntryFormatByName(name)
	if format == nil {
		return nil, fmt.Errorf("unknown entry format %q (available: standard, indicator)", name)
	}

	return format, nil
}

// CreateEntryFormatWithAliases layers explicit column aliases over a format,
// for exports whose headers differ from the predefined layouts.
func CreateEntryFormatWithAliases(name string, aliases map[string]string) (*parsers.EntryFormat, error) {
	format, err := CreateEntryFormat(name)
	if err != nil {
		return nil, err
	}
	if len(aliases) == 0 {
		return format, nil
	}
	f := *format
	f.ColumnAliases = make(map[string]string, len(aliases))
	for field, column := range aliases {
		f.ColumnAliases[field] = column
	}
	return &f, nil
}

// CreateReportConfig builds the report configuration for one output format.
func CreateReportConfig(format string, minConfidence float64) (*reporter.ReportConfig, error) {
	cfg := reporter.DefaultReportConfig()
	cfg.MinConfidence = minConfidence

	switch format {
	case "console", "":
		cfg.Format = reporter.FormatConsole
	case "json":
		cfg.Format = reporter.FormatJSON
	case "csv":
		cfg.Format = reporter.FormatCSV
		cfg.IncludeRecords = false
	default:
		return nil, fmt.Errorf("invalid output format %q (available: console, json, csv)", format)
	}
	return cfg, nil
}

// CreateLogger builds the CLI logger.
func CreateLogger(verbose bool) logger.Logger {
	cfg := logger.DefaultConfig()
	if verbose {
		cfg.Level = logger.DebugLevel
	} else {
		cfg.Level = logger.WarnLevel
	}
	return logger.New(cfg)
}
