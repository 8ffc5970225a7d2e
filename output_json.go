package stylusdiff

import (
	"encoding/json"
	"errors"
	"io"
	"time"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version    string      `json:"version"`
	Timestamp  string      `json:"timestamp"`
	Mode       string      `json:"mode"`
	MarkerFile string      `json:"marker_file,omitempty"`
	DurationMS int64       `json:"duration_ms"`
	Summary    JSONSummary `json:"summary"`
	Units      []JSONUnit  `json:"units"`
}

// JSONSummary contains per-action unit counts
type JSONSummary struct {
	Units        int `json:"units"`
	Written      int `json:"written"`
	Unchanged    int `json:"unchanged"`
	Baselined    int `json:"baselined"`
	CacheUpdated int `json:"cache_updated"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
}

// JSONUnit represents the outcome for one source unit
type JSONUnit struct {
	Name   string     `json:"name"`
	Source string     `json:"source"`
	Action string     `json:"action"`
	Error  *JSONError `json:"error,omitempty"`
	Diff   string     `json:"diff,omitempty"`
}

// JSONError is a compile error with its location
type JSONError struct {
	Kind    string `json:"kind,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// WriteJSON writes the result as JSON
func WriteJSON(w io.Writer, result *Result) error {
	output := buildJSONOutput(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts Result to JSONOutput
func buildJSONOutput(result *Result) JSONOutput {
	units := make([]JSONUnit, len(result.Units))
	for i, u := range result.Units {
		units[i] = JSONUnit{
			Name:   u.Unit.Name,
			Source: u.Unit.Path,
			Action: u.Action.String(),
			Error:  jsonError(u.Err),
			Diff:   u.Diff,
		}
	}

	marker := ""
	if result.Marker != nil {
		marker = result.Marker.File
	}

	return JSONOutput{
		Version:    "1.0",
		Timestamp:  time.Now().Format(time.RFC3339),
		Mode:       string(result.Mode),
		MarkerFile: marker,
		DurationMS: result.Duration.Milliseconds(),
		Summary: JSONSummary{
			Units:        len(result.Units),
			Written:      result.Count(Written),
			Unchanged:    result.Count(Unchanged),
			Baselined:    result.Count(Baselined),
			CacheUpdated: result.Count(CacheUpdated),
			Failed:       result.Count(Failed),
			Skipped:      result.Count(Skipped),
		},
		Units: units,
	}
}

func jsonError(err error) *JSONError {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return &JSONError{Kind: ce.Kind, File: ce.File, Line: ce.Line, Column: ce.Column, Message: ce.Message}
	}
	return &JSONError{Message: err.Error()}
}
