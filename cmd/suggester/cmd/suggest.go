package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lending-reconciliation-service/cmd/suggester/config"
	"lending-reconciliation-service/internal/engine"
	"lending-reconciliation-service/internal/parsers"
	"lending-reconciliation-service/internal/reporter"
	sugerrors "lending-reconciliation-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the suggest command.
var (
	entriesFile     string
	referenceFile   string
	entryFormat     string
	outputFormat    string
	outputFile      string
	minConfidence   float64
	amountTolerance float64
	singleWindow    int
	groupWindow     int
	disableMatchers []string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest reconciliation matches for bank entries",
	Long: `Suggest reads unreconciled bank entries from a CSV statement export and
the ledger collections from a JSON reference bundle, then proposes the
accounting event behind each entry.

Each suggestion names the event type (loan repayment, loan disbursement,
investor capital movement, interest withdrawal, or expense), the ledger
records it references, and a confidence score. Nothing is written back;
the output is meant for human review.

Examples:
  # Console report
  suggester suggest --entries entries.csv --reference ledger.json

  # JSON output to a file, hiding weak suggestions
  suggester suggest -e entries.csv -r ledger.json \
    --format json --output suggestions.json --min-confidence 0.6

  # Statements with unsigned amounts and a debit/credit column
  suggester suggest -e export.csv -r ledger.json --entry-format indicator

  # Skip the fallback name matching
  suggester suggest -e entries.csv -r ledger.json --disable pattern`,

	PreRunE: validateSuggestFlags,
	RunE:    runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringVarP(&entriesFile, "entries", "e", "", "path to bank entry CSV file (required)")
	suggestCmd.Flags().StringVarP(&referenceFile, "reference", "r", "", "path to JSON reference bundle (required)")
	suggestCmd.Flags().StringVar(&entryFormat, "entry-format", "standard", "entry CSV format: standard, indicator")

	suggestCmd.Flags().StringVarP(&outputFormat, "format", "f", "console", "output format: console, json, csv")
	suggestCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default: stdout)")

	suggestCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "hide suggestions below this confidence (0 shows all accepted)")
	suggestCmd.Flags().Float64Var(&amountTolerance, "amount-tolerance", 0, "absolute amount tolerance in currency units")
	suggestCmd.Flags().IntVar(&singleWindow, "single-window", 0, "days window for one-to-one matching")
	suggestCmd.Flags().IntVar(&groupWindow, "group-window", 0, "days window for same-party grouping")
	suggestCmd.Flags().StringSliceVar(&disableMatchers, "disable", nil, "matcher names to disable for this run")

	suggestCmd.MarkFlagRequired("entries")
	suggestCmd.MarkFlagRequired("reference")

	viper.BindPFlag("entries", suggestCmd.Flags().Lookup("entries"))
	viper.BindPFlag("reference", suggestCmd.Flags().Lookup("reference"))
	viper.BindPFlag("entry-format", suggestCmd.Flags().Lookup("entry-format"))
	viper.BindPFlag("format", suggestCmd.Flags().Lookup("format"))
	viper.BindPFlag("output", suggestCmd.Flags().Lookup("output"))
	viper.BindPFlag("min-confidence", suggestCmd.Flags().Lookup("min-confidence"))
	viper.BindPFlag("amount-tolerance", suggestCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("single-window", suggestCmd.Flags().Lookup("single-window"))
	viper.BindPFlag("group-window", suggestCmd.Flags().Lookup("group-window"))
	viper.BindPFlag("disable", suggestCmd.Flags().Lookup("disable"))
}

func validateSuggestFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config-file and env settings apply.
	entriesFile = viper.GetString("entries")
	referenceFile = viper.GetString("reference")
	entryFormat = viper.GetString("entry-format")
	outputFormat = viper.GetString("format")
	outputFile = viper.GetString("output")
	minConfidence = viper.GetFloat64("min-confidence")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	singleWindow = viper.GetInt("single-window")
	groupWindow = viper.GetInt("group-window")
	disableMatchers = viper.GetStringSlice("disable")

	if entriesFile == "" {
		return fmt.Errorf("entries file is required")
	}
	if referenceFile == "" {
		return fmt.Errorf("reference file is required")
	}
	if err := validateFileExists(entriesFile, "entries file"); err != nil {
		return err
	}
	if err := validateFileExists(referenceFile, "reference file"); err != nil {
		return err
	}

	if minConfidence < 0 || minConfidence > 1 {
		return fmt.Errorf("min-confidence must be between 0.0 and 1.0")
	}
	if amountTolerance < 0 {
		return fmt.Errorf("amount-tolerance cannot be negative")
	}
	if singleWindow < 0 || groupWindow < 0 {
		return fmt.Errorf("matching windows cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	log := config.CreateLogger(viper.GetBool("verbose"))

	matcherConfig, err := config.CreateMatcherConfig(minConfidence, amountTolerance, singleWindow, groupWindow)
	if err != nil {
		return sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, err.Error(), err)
	}

	format, err := config.CreateEntryFormat(entryFormat)
	if err != nil {
		return sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, err.Error(), err)
	}

	entryParser, err := parsers.NewEntryParser(format, log)
	if err != nil {
		return sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, err.Error(), err)
	}

	entries, stats, err := entryParser.ParseEntries(entriesFile)
	if err != nil {
		return err
	}
	if stats.HasErrors() && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Statement parsing: %s\n", stats)
		for _, sample := range stats.SampleErrors(5) {
			fmt.Fprintf(os.Stderr, "  %s\n", sample)
		}
	}
	if len(entries) == 0 {
		return sugerrors.NewValidationError(sugerrors.CodeInvalidData,
			fmt.Sprintf("no valid bank entries in %s", entriesFile), nil).
			WithSuggestion("check the entry format and column names")
	}

	dataset, err := parsers.LoadReferenceBundle(referenceFile, log)
	if err != nil {
		return err
	}
	dataset.Entries = entries

	runner, err := engine.NewRunner(matcherConfig, log)
	if err != nil {
		return err
	}
	for _, name := range disableMatchers {
		runner.Registry().SetEnabled(strings.TrimSpace(name), false)
	}

	result, err := runner.Run(dataset)
	if err != nil {
		return sugerrors.Wrap(err, sugerrors.CategorySuggestion, sugerrors.CodeBatchFailed, "suggestion run failed")
	}

	reportConfig, err := config.CreateReportConfig(outputFormat, minConfidence)
	if err != nil {
		return sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, err.Error(), err)
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, err.Error(), err)
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return sugerrors.NewFileError(sugerrors.CodeFilePermission,
				fmt.Sprintf("cannot create output file %s", outputFile), err)
		}
		defer output.Close()
	}

	if err := generator.GenerateReport(result, entries, output); err != nil {
		return sugerrors.Wrap(err, sugerrors.CategorySuggestion, sugerrors.CodeBatchFailed, "report generation failed")
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nProcessed %d entries: %d suggested, %d unmatched (%.0f ms)\n",
			result.Processed, len(result.Suggestions), len(result.Unmatched),
			float64(result.Duration.Microseconds())/1000)
	}
	return nil
}
