package cmd

import (
	"fmt"
	"os"

	sugerrors "lending-reconciliation-service/pkg/errors"

	"github.com/spf13/viper"
)

// HandleError prints a user-facing description of the failure to stderr and
// returns the process exit code.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	if se, ok := sugerrors.AsSuggesterError(err); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", se.UserMessage())
		if len(se.Context) > 0 {
			fmt.Fprintf(os.Stderr, "\nContext:\n")
			for key, value := range se.Context {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
			}
		}
		if help := categoryHelp(se.Category); help != "" {
			fmt.Fprintf(os.Stderr, "\n%s\n", help)
		}
		if viper.GetBool("verbose") && se.Cause != nil {
			fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", se.Cause)
		}
		return sugerrors.ExitCode(se)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func categoryHelp(category sugerrors.Category) string {
	switch category {
	case sugerrors.CategoryFile:
		return `File error help:
  - Check that the file exists and the path is correct
  - Ensure you have read access to the file`
	case sugerrors.CategoryParse:
		return `Parse error help:
  - Verify the CSV columns match the selected entry format
  - Ensure the file uses UTF-8 encoding
  - Check that the reference file is valid JSON`
	case sugerrors.CategoryValidation:
		return `Validation error help:
  - Check that every record has an ID, amount, and date
  - Verify that transactions reference known loans and investors
  - Dates use YYYY-MM-DD; amounts are decimals without currency symbols`
	case sugerrors.CategoryConfiguration:
		return `Configuration error help:
  - Review the command-line flags and argument values
  - Use 'suggester suggest --help' to see all available options`
	case sugerrors.CategorySuggestion:
		return `Suggestion error help:
  - Check data quality in the statement and reference files
  - Try adjusting --min-confidence or the matching windows`
	default:
		return ""
	}
}
