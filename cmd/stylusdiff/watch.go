package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yacobolo/stylusdiff"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run diff whenever a source changes",
	Long: `Run diff once, then again every time a .styl file under the source directory
changes. Changes that arrive during a run are folded into one follow-up run.
Stop with Ctrl-C.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := buildConfig()
		if err != nil {
			return err
		}

		return stylusdiff.Watch(cmd.Context(), config, buildRenderOptions(), func(result *stylusdiff.Result, err error) {
			if result != nil {
				if werr := writeResult(cmd, result); werr != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
				}
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: diff failed: %v\n", err)
			}
		})
	},
}

func init() {
	addRenderFlags(watchCmd)
	addOutputFlags(watchCmd)
}
