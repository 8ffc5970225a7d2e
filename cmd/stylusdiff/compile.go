package main

import (
	"github.com/spf13/cobra"
	"github.com/yacobolo/stylusdiff"
)

var compileCmd = &cobra.Command{
	Use:     "compile",
	Aliases: []string{"build"},
	Short:   "Render every stylesheet and overwrite the build directory",
	Long: `Render every entry point in the final mode and write every artifact, without
consulting or updating the snapshots. Artifacts that already hold the rendered bytes
are left alone.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, "compile", stylusdiff.Compile)
	},
}

var frontendCopyCmd = &cobra.Command{
	Use:   "frontend-copy",
	Short: "Make sure the build directory holds clean CSS",
	Long: `Prepare the build directory for a downstream copy. If it holds annotated output
(line comments or sourcemap references), every stylesheet is rendered again without
them. Clean output is left untouched.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, "frontend copy", stylusdiff.FrontendCopy)
	},
}

func init() {
	addRenderFlags(compileCmd)
	addOutputFlags(compileCmd)

	addRenderFlags(frontendCopyCmd)
	addOutputFlags(frontendCopyCmd)
}
