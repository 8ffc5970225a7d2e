package stylusdiff

import (
	"fmt"
	"io"

	"github.com/yacobolo/stylusdiff/internal/report"
)

// OutputFormat selects how a Result is printed.
type OutputFormat string

const (
	// OutputText lists changed units, compile errors and a summary
	OutputText OutputFormat = "text"
	// OutputErrors prints compile errors only (quiet mode)
	OutputErrors OutputFormat = "errors"
	// OutputJSON exports structured data in JSON format (tooling integration)
	OutputJSON OutputFormat = "json"
)

// OutputConfig holds presentation settings for WriteOutput.
type OutputConfig struct {
	UseColors  bool // Force colors; auto-detected otherwise
	PrintLines bool // Show the source line under compile errors
	ShowAll    bool // List unchanged units too
	ShowDiffs  bool // Print snapshot diffs of changed units
}

// DetermineOutputFormat selects the appropriate output format based on flags
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit quiet flag wins
	if quiet {
		return OutputErrors
	}

	switch formatFlag {
	case "json":
		return OutputJSON
	case "errors":
		return OutputErrors
	default:
		return OutputText
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *Result, format OutputFormat, config OutputConfig) error {
	run := report.Run{
		Mode:     string(result.Mode),
		Units:    result.Units,
		Duration: result.Duration,
	}
	if result.Marker != nil {
		run.MarkerFile = result.Marker.File
	}

	switch format {
	case OutputJSON:
		if err := WriteJSON(w, result); err != nil {
			return fmt.Errorf("write json: %w", err)
		}

	case OutputErrors:
		reporter := report.New(w, report.Options{UseColors: config.UseColors, PrintLines: config.PrintLines})
		reporter.PrintErrors(result.Units)

	default:
		reporter := report.New(w, report.Options{
			UseColors:  config.UseColors,
			PrintLines: config.PrintLines,
			ShowAll:    config.ShowAll,
		})
		reporter.PrintHeader(run)
		reporter.PrintUnits(result.Units)
		reporter.PrintErrors(result.Units)
		if config.ShowDiffs {
			report.NewVerboseReporter(w, reporter.UseColors()).PrintDiffs(result.Units)
		}
		reporter.PrintSummary(run)
	}
	return nil
}
