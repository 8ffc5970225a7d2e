package stylusdiff

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		Mode:     ModeDiff,
		Duration: 12 * time.Millisecond,
		Units: []UnitResult{
			{Unit: Unit{Name: "style", Path: "src/style.styl"}, Action: Written, Diff: "--- a\n+++ b\n"},
			{Unit: Unit{Name: "print", Path: "src/print.styl"}, Action: Unchanged},
			{
				Unit:   Unit{Name: "broken", Path: "src/broken.styl"},
				Action: Failed,
				Err:    &CompileError{Kind: "ParseError", File: "src/broken.styl", Line: 3, Column: 1, Message: "unexpected '}'"},
			},
		},
	}
}

func TestDetermineOutputFormat(t *testing.T) {
	tests := []struct {
		flag  string
		quiet bool
		want  OutputFormat
	}{
		{"", false, OutputText},
		{"json", false, OutputJSON},
		{"errors", false, OutputErrors},
		{"json", true, OutputErrors},
		{"bogus", false, OutputText},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetermineOutputFormat(tt.flag, tt.quiet), "flag=%q quiet=%v", tt.flag, tt.quiet)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputJSON, OutputConfig{}))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "diff", out.Mode)
	assert.Equal(t, int64(12), out.DurationMS)
	assert.Equal(t, JSONSummary{Units: 3, Written: 1, Unchanged: 1, Failed: 1}, out.Summary)

	require.Len(t, out.Units, 3)
	assert.Equal(t, "written", out.Units[0].Action)
	assert.Nil(t, out.Units[1].Error)
	require.NotNil(t, out.Units[2].Error)
	assert.Equal(t, JSONError{Kind: "ParseError", File: "src/broken.styl", Line: 3, Column: 1, Message: "unexpected '}'"}, *out.Units[2].Error)
}

func TestJSONErrorPlain(t *testing.T) {
	assert.Equal(t, &JSONError{Message: "boom"}, jsonError(errors.New("boom")))
	assert.Nil(t, jsonError(nil))
}

func TestWriteOutputText(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("GITHUB_ACTIONS", "")

	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputText, OutputConfig{ShowDiffs: true}))
	out := buf.String()

	assert.Contains(t, out, "written       style\n")
	assert.NotContains(t, out, "unchanged     print")
	assert.Contains(t, out, "src/broken.styl:3:1: unexpected '}' (ParseError)\n")
	assert.Contains(t, out, "+++ b\n")
	assert.Contains(t, out, "3 units (1 written, 1 unchanged, 1 failed) in 12ms\n")
}

func TestWriteOutputErrorsOnly(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("GITHUB_ACTIONS", "")

	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputErrors, OutputConfig{}))
	assert.Equal(t, "src/broken.styl:3:1: unexpected '}' (ParseError)\n", buf.String())
}
