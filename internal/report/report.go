// Package report describes the output of a local conversion run.
package report

import (
	"encoding/json"
	"os"
	"time"
)

// SupportedReportVersion is the current schema version.
const SupportedReportVersion = 1

// Report is the top-level output of a texview convert run.
type Report struct {
	Version     int     `json:"version"`
	GeneratedAt string  `json:"generated_at"`
	Converted   []Entry `json:"converted"`
	Failed      []Fail  `json:"failed,omitempty"`
	Stats       Stats   `json:"stats"`
}

// Entry describes one successfully converted texture.
type Entry struct {
	Source     string `json:"source"`
	Output     string `json:"output"`
	Format     string `json:"format"` // source container: "blp" or "tga"
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	InputSize  int64  `json:"input_size"`
	OutputSize int64  `json:"output_size"`
	Hash       string `json:"hash"` // first 16 hex chars of xxhash64 of the PNG
}

// Fail records one file dropped from the run.
type Fail struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalFiles       int   `json:"total_files"`
	Converted        int   `json:"converted"`
	Failed           int   `json:"failed"`
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
}

// New creates an empty report with defaults.
func New() *Report {
	return &Report{
		Version:     SupportedReportVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ComputeStats recalculates aggregate statistics from the entries.
func (r *Report) ComputeStats() {
	var s Stats
	s.Converted = len(r.Converted)
	s.Failed = len(r.Failed)
	s.TotalFiles = s.Converted + s.Failed
	for _, e := range r.Converted {
		s.TotalInputBytes += e.InputSize
		s.TotalOutputBytes += e.OutputSize
	}
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
