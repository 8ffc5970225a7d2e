package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const configFileName = ".stylusdiff.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .stylusdiff.yaml config file",
	Long:  `Create a .stylusdiff.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(configFileName); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
		}

		if err := os.WriteFile(configFileName, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configFileName)
		return nil
	},
}

const defaultConfig = `# stylusdiff configuration
# Precedence: flags > STYLUSDIFF_* environment (and .env) > this file > defaults

verbose: false
quiet: false

paths:
  source: src/stylus
  include:
    - "*.styl"
  build-dir: bld/css
  cache-dir: tmp/stylus

render:
  engine: css              # css | stylus
  stylus-bin: stylus
  linenos: true            # final mode of diff/compile
  sourcemap: false         # ignored when linenos is on
  sourcemap-inline: false
  sourcemap-root: ""
  compress: false
  include-paths: []
  use: []
  resolve-url: false
  jobs: 0                  # 0 = number of CPUs

output:
  format: text             # text | errors | json
  print-lines: true
  show-all: false
  strict: false
  color: false
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
