// Package report prints run results for humans.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yacobolo/stylusdiff/internal/reconcile"
	"github.com/yacobolo/stylusdiff/internal/render"
)

// Options configures a Reporter.
type Options struct {
	UseColors  bool // Force colors; otherwise auto-detected
	PrintLines bool // Show the offending source line under compile errors
	ShowAll    bool // List unchanged units too
}

// Run is what one operation produced.
type Run struct {
	Mode       string
	MarkerFile string
	Units      []reconcile.Result
	Duration   time.Duration
}

// Reporter handles formatting and outputting run results
type Reporter struct {
	w          io.Writer
	useColors  bool
	printLines bool
	showAll    bool
}

// New creates a new reporter with the given configuration
func New(w io.Writer, opts Options) *Reporter {
	return &Reporter{
		w:          w,
		useColors:  ShouldUseColors(opts.UseColors),
		printLines: opts.PrintLines,
		showAll:    opts.ShowAll,
	}
}

// ShouldUseColors determines if colors should be enabled
func ShouldUseColors(force bool) bool {
	// Explicit flag wins
	if force {
		return true
	}

	// Check for FORCE_COLOR environment variable (GitHub Actions, etc.)
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// GitHub Actions supports colors
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintHeader names the path the run took.
func (r *Reporter) PrintHeader(run Run) {
	switch run.Mode {
	case "annotated":
		fmt.Fprintf(r.w, "%s %s\n",
			RenderStyle(StyleYellow, "annotated output found:", r.useColors),
			run.MarkerFile)
		fmt.Fprintln(r.w, RenderStyle(StyleGray, "diff skipped, rebuilding every unit", r.useColors))
	case "clean-copy":
		fmt.Fprintf(r.w, "%s %s\n",
			RenderStyle(StyleYellow, "annotated output found:", r.useColors),
			run.MarkerFile)
		fmt.Fprintln(r.w, RenderStyle(StyleGray, "rendering clean CSS for the copy", r.useColors))
	case "already-clean":
		fmt.Fprintln(r.w, RenderStyle(StyleGray, "build output is clean, nothing to render", r.useColors))
	}
}

// PrintUnits lists what happened to each unit. Unchanged units are listed only
// with ShowAll.
func (r *Reporter) PrintUnits(units []reconcile.Result) {
	for _, u := range units {
		if u.Action == reconcile.Unchanged && !r.showAll {
			continue
		}
		label := fmt.Sprintf("%-13s", u.Action.String())
		fmt.Fprintf(r.w, "%s %s\n", RenderStyle(actionStyle(u.Action), label, r.useColors), u.Unit.Name)
	}
}

func actionStyle(a reconcile.Action) lipgloss.Style {
	switch a {
	case reconcile.Written:
		return StyleGreen
	case reconcile.Failed:
		return StyleRed
	case reconcile.Baselined, reconcile.CacheUpdated:
		return StyleYellow
	default:
		return StyleGray
	}
}

// PrintErrors outputs compile errors in file:line:col format
func (r *Reporter) PrintErrors(units []reconcile.Result) {
	for _, u := range units {
		if u.Action != reconcile.Failed || u.Err == nil {
			continue
		}
		r.printError(u)
	}
}

func (r *Reporter) printError(u reconcile.Result) {
	var ce *render.CompileError
	if !errors.As(u.Err, &ce) {
		fmt.Fprintf(r.w, "%s %v\n", RenderStyle(StyleCyan, u.Unit.Path+":", r.useColors), u.Err)
		return
	}

	location := ce.File
	if location == "" {
		location = u.Unit.Path
	}
	if ce.Line > 0 {
		location = fmt.Sprintf("%s:%d", location, ce.Line)
		if ce.Column > 0 {
			location = fmt.Sprintf("%s:%d", location, ce.Column)
		}
	}

	kindSuffix := ""
	if ce.Kind != "" {
		kindSuffix = fmt.Sprintf(" (%s)", ce.Kind)
	}

	// Print main error line
	fmt.Fprintf(r.w, "%s %s%s\n",
		RenderStyle(StyleCyan, location+":", r.useColors),
		ce.Message,
		RenderStyle(StyleGray, kindSuffix, r.useColors))

	// Print source line with caret indicator
	if r.printLines && ce.Line > 0 {
		if line, ok := readLine(ce.File, ce.Line); ok {
			fmt.Fprintf(r.w, "\t%s\n", line)
			caret := r.buildCaretIndicator(line, ce.Column)
			fmt.Fprintf(r.w, "\t%s\n", RenderStyle(StyleYellow, caret, r.useColors))
		}
	}
}

// buildCaretIndicator creates the "^" indicator aligned with the column.
// Tabs in the prefix are kept so the caret lines up in the terminal.
func (r *Reporter) buildCaretIndicator(sourceLine string, column int) string {
	if column <= 0 {
		return "^"
	}

	// Extract the prefix up to the column (0-based index = column - 1)
	prefixLen := column - 1
	if prefixLen > len(sourceLine) {
		prefixLen = len(sourceLine)
	}

	prefix := sourceLine[:prefixLen]

	// Build padding that matches tabs/spaces in the prefix
	var padding strings.Builder
	for _, ch := range prefix {
		if ch == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteRune(' ')
		}
	}

	return padding.String() + "^"
}

// readLine returns line n (1-based) of file.
func readLine(file string, n int) (string, bool) {
	// #nosec G304 - file comes from a compile error for a discovered source
	f, err := os.Open(file)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for i := 1; scanner.Scan(); i++ {
		if i == n {
			return scanner.Text(), true
		}
	}
	return "", false
}

// PrintSummary outputs the unit count summary
func (r *Reporter) PrintSummary(run Run) {
	counts := make(map[reconcile.Action]int)
	for _, u := range run.Units {
		counts[u.Action]++
	}

	var parts []string
	for _, a := range []reconcile.Action{reconcile.Written, reconcile.CacheUpdated, reconcile.Baselined, reconcile.Unchanged, reconcile.Skipped, reconcile.Failed} {
		if counts[a] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[a], a))
		}
	}

	fmt.Fprintln(r.w, "")
	line := pluralizeCount(len(run.Units), "unit", "units")
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	fmt.Fprintf(r.w, "%s in %s\n", line, run.Duration.Round(time.Millisecond))

	if failed := counts[reconcile.Failed]; failed > 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleRed,
			fmt.Sprintf("%s failed to compile", pluralizeCount(failed, "unit", "units")), r.useColors))
		fmt.Fprintln(r.w, RenderStyle(StyleGray, "Hint: failed units keep their previous artifact and snapshot", r.useColors))
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
