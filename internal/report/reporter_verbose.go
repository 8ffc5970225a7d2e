package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yacobolo/stylusdiff/internal/reconcile"
)

// VerboseReporter prints the snapshot diffs of changed units
type VerboseReporter struct {
	w         io.Writer
	useColors bool
}

// NewVerboseReporter creates a verbose reporter
func NewVerboseReporter(w io.Writer, useColors bool) *VerboseReporter {
	return &VerboseReporter{
		w:         w,
		useColors: useColors,
	}
}

// PrintDiffs shows the unified diff of every unit that carries one
func (r *VerboseReporter) PrintDiffs(units []reconcile.Result) {
	for _, u := range units {
		if u.Diff == "" {
			continue
		}
		fmt.Fprintln(r.w, "")
		fmt.Fprintln(r.w, RenderStyle(StyleCyan, u.Unit.Name, r.useColors))
		fmt.Fprintln(r.w, strings.Repeat("-", len(u.Unit.Name)))

		for _, line := range strings.SplitAfter(u.Diff, "\n") {
			if line == "" {
				continue
			}
			text := strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
				fmt.Fprintln(r.w, RenderStyle(StyleGray, text, r.useColors))
			case strings.HasPrefix(text, "@@"):
				fmt.Fprintln(r.w, RenderStyle(StyleCyan, text, r.useColors))
			case strings.HasPrefix(text, "+"):
				fmt.Fprintln(r.w, RenderStyle(StyleGreen, text, r.useColors))
			case strings.HasPrefix(text, "-"):
				fmt.Fprintln(r.w, RenderStyle(StyleRed, text, r.useColors))
			default:
				fmt.Fprintln(r.w, text)
			}
		}
	}
}
