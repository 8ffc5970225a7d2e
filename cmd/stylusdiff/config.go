package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/yacobolo/stylusdiff"
)

var k = koanf.New(".")

// Sections of the config file. Environment variables map onto them:
// STYLUSDIFF_PATHS_BUILD_DIR -> paths.build-dir, STYLUSDIFF_VERBOSE -> verbose.
var configSections = map[string]bool{
	"paths":  true,
	"render": true,
	"output": true,
}

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	// Resolve config file path from flag
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = ".stylusdiff.yaml"
	}

	// Load config file and env vars
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence, only flags that were explicitly set)
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", nil), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	// 2. Environment variables (STYLUSDIFF_* prefix)
	if err := k.Load(env.Provider("STYLUSDIFF_", ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps STYLUSDIFF_RENDER_SOURCEMAP_ROOT to render.sourcemap-root.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "STYLUSDIFF_"))
	if section, rest, ok := strings.Cut(key, "_"); ok && configSections[section] {
		return section + "." + strings.ReplaceAll(rest, "_", "-")
	}
	return strings.ReplaceAll(key, "_", "-")
}

// buildConfig constructs the library's Config struct from koanf state.
func buildConfig() (stylusdiff.Config, error) {
	config := stylusdiff.Config{
		SourceDir: getStringWithFallback("source", "paths.source", "src/stylus"),
		Includes:  getStringsWithFallback("include", "paths.include", nil),
		BuildDir:  getStringWithFallback("build-dir", "paths.build-dir", "bld/css"),
		CacheDir:  getStringWithFallback("cache-dir", "paths.cache-dir", "tmp/stylus"),
		Jobs:      getIntWithFallback("jobs", "render.jobs", 0),
		ShowDiffs: getBoolWithFallback("verbose", "verbose", false),
	}

	switch engine := getStringWithFallback("engine", "render.engine", "css"); engine {
	case "css":
		config.Engine = stylusdiff.NewCSSEngine()
	case "stylus":
		config.Engine = stylusdiff.NewExecEngine(getStringWithFallback("stylus-bin", "render.stylus-bin", "stylus"))
	default:
		return config, fmt.Errorf("unknown engine %q (want css or stylus)", engine)
	}

	if config.ShowDiffs {
		config.Logger = log.New(os.Stderr, "", log.Ltime)
	}

	return config, nil
}

// buildRenderOptions constructs the final render mode from koanf state.
func buildRenderOptions() stylusdiff.Options {
	opts := stylusdiff.Options{
		Linenos:      getBoolWithFallback("linenos", "render.linenos", true),
		Compress:     getBoolWithFallback("compress", "render.compress", false),
		IncludePaths: getStringsWithFallback("include-path", "render.include-paths", nil),
		Plugins:      getStringsWithFallback("use", "render.use", nil),
		ResolveURL:   getBoolWithFallback("resolve-url", "render.resolve-url", false),
	}
	if getBoolWithFallback("no-comments", "render.no-comments", false) {
		opts.Linenos = false
	}

	inline := getBoolWithFallback("sourcemap-inline", "render.sourcemap-inline", false)
	if getBoolWithFallback("sourcemap", "render.sourcemap", false) || inline {
		opts.Sourcemap = &stylusdiff.SourcemapOptions{
			Inline:     inline,
			SourceRoot: getStringWithFallback("sourcemap-root", "render.sourcemap-root", ""),
		}
	}

	return opts
}

// buildOutputConfig constructs presentation settings from koanf state.
func buildOutputConfig() (stylusdiff.OutputFormat, stylusdiff.OutputConfig) {
	quiet := getBoolWithFallback("quiet", "quiet", false)
	format := stylusdiff.DetermineOutputFormat(getStringWithFallback("output-format", "output.format", ""), quiet)

	return format, stylusdiff.OutputConfig{
		UseColors:  getBoolWithFallback("color", "output.color", false),
		PrintLines: getBoolWithFallback("print-lines", "output.print-lines", true),
		ShowAll:    getBoolWithFallback("show-all", "output.show-all", false),
		ShowDiffs:  getBoolWithFallback("verbose", "verbose", false),
	}
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getStringsWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	if v := k.Strings(flagKey); len(v) > 0 {
		return v
	}
	if v := k.Strings(configKey); len(v) > 0 {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}
