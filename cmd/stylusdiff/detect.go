package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yacobolo/stylusdiff"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Report whether the build directory holds annotated output",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		buildDir := getStringWithFallback("build-dir", "paths.build-dir", "bld/css")

		found, err := stylusdiff.Detect(buildDir)
		if err != nil {
			return fmt.Errorf("detect failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if found == nil {
			fmt.Fprintf(out, "clean: %s\n", buildDir)
			return nil
		}

		var kinds []string
		if found.LineComments {
			kinds = append(kinds, "line comments")
		}
		if found.SourceMapRef {
			kinds = append(kinds, "sourcemap reference")
		}
		fmt.Fprintf(out, "annotated: %s (%s)\n", found.File, joinKinds(kinds))
		return nil
	},
}

func joinKinds(kinds []string) string {
	if len(kinds) == 2 {
		return kinds[0] + " and " + kinds[1]
	}
	if len(kinds) == 1 {
		return kinds[0]
	}
	return ""
}
