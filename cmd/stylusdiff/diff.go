package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yacobolo/stylusdiff"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Rebuild only the stylesheets whose CSS changed",
	Long: `Render every entry point without annotations and compare it with the snapshot of
the previous run. Changed stylesheets are rebuilt in the final mode (line comments by
default, --no-comments for clean CSS). When the build directory already holds
annotated output, every stylesheet is rebuilt instead.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runDiff,
}

func init() {
	addRenderFlags(diffCmd)
	addOutputFlags(diffCmd)
}

func runDiff(cmd *cobra.Command, _ []string) error {
	return runOperation(cmd, "diff", stylusdiff.Run)
}

type operation func(ctx context.Context, cfg stylusdiff.Config, opts stylusdiff.Options) (*stylusdiff.Result, error)

// runOperation is shared by every command that renders: it builds the library
// config, runs op and prints the result.
func runOperation(cmd *cobra.Command, name string, op operation) error {
	config, err := buildConfig()
	if err != nil {
		return err
	}

	result, err := op(cmd.Context(), config, buildRenderOptions())
	if result != nil {
		if werr := writeResult(cmd, result); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return checkFailures(result)
}

func writeResult(cmd *cobra.Command, result *stylusdiff.Result) error {
	format, outputConfig := buildOutputConfig()
	return stylusdiff.WriteOutput(cmd.OutOrStdout(), result, format, outputConfig)
}

// checkFailures turns compile failures into an error in strict mode. By default
// failed units are only reported.
func checkFailures(result *stylusdiff.Result) error {
	if !getBoolWithFallback("strict", "output.strict", false) {
		return nil
	}
	if n := len(result.Failures()); n > 0 {
		return fmt.Errorf("%d of %d units failed to compile", n, len(result.Units))
	}
	return nil
}
