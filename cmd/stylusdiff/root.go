package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stylusdiff",
	Short: "Stylus compiler with diff-then-render builds",
	Long: `Compile Stylus entry points to CSS and keep the build directory in sync.
Sources are rendered without annotations and compared against the snapshot of the
previous run; only stylesheets whose CSS changed are rebuilt.`,
	// Default behavior: run diff when no subcommand is given.
	// We must call loadConfig here because PreRunE of diffCmd
	// is not triggered when delegating via rootCmd.RunE.
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runDiff(cmd, nil)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable verbose logging and snapshot diffs")
	pf.Bool("quiet", false, "Only print compile errors")
	pf.Bool("color", false, "Force color output")
	pf.String("config", ".stylusdiff.yaml", "Config file path")
	pf.String("source", "src/stylus", "Source directory holding the entry points")
	pf.StringSlice("include", nil, "Glob patterns for entry points, relative to --source")
	pf.String("build-dir", "bld/css", "Build directory for compiled CSS")
	pf.String("cache-dir", "tmp/stylus", "Cache directory for unannotated snapshots")
	pf.String("engine", "css", "Render engine: css|stylus")
	pf.String("stylus-bin", "stylus", "Path to the stylus executable (engine=stylus)")
	pf.Int("jobs", 0, "Units rendered concurrently (0 = number of CPUs)")

	addRenderFlags(rootCmd)
	addOutputFlags(rootCmd)

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(frontendCopyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// addRenderFlags registers the render mode flags on a command that renders.
func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("linenos", true, "Annotate output with source line comments")
	f.Bool("no-comments", false, "Render without line comments (overrides --linenos)")
	f.Bool("sourcemap", false, "Write a sourcemap next to each artifact (ignored with line comments)")
	f.Bool("sourcemap-inline", false, "Embed the sourcemap in the artifact instead of a .map file")
	f.String("sourcemap-root", "", "sourceRoot value of generated sourcemaps")
	f.Bool("compress", false, "Minify output")
	f.StringSlice("include-path", nil, "Additional @import search paths")
	f.StringSlice("use", nil, "Stylus plugins to load (engine=stylus)")
	f.Bool("resolve-url", false, "Resolve relative url()s inside imports (engine=stylus)")
}

// addOutputFlags registers the result presentation flags.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("output-format", "", "Output format: text|errors|json")
	f.Bool("print-lines", true, "Show source lines under compile errors")
	f.Bool("show-all", false, "List unchanged units too")
	f.Bool("strict", false, "Exit 1 when any unit fails to compile")
}
