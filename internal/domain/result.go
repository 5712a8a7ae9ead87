package domain

import "fmt"

// Status is the tri-state outcome every pipeline stage reports.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// StageResult is the structured outcome of one pipeline stage. Counts hold
// row-level tallies (read, written, dropped); Diagnostics hold whatever a
// human needs to act on a warning or error.
type StageResult struct {
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	Counts      map[string]int         `json:"counts,omitempty"`
	Diagnostics map[string]interface{} `json:"diagnostics,omitempty"`
}

// Success returns a success result with an optional message.
func Success(message string) StageResult {
	return StageResult{Status: StatusSuccess, Message: message}
}

// Warning returns a warning result. Warnings never halt the pipeline.
func Warning(message string) StageResult {
	return StageResult{Status: StatusWarning, Message: message}
}

// Errorf returns an error result. Errors halt downstream stages.
func Errorf(format string, args ...interface{}) StageResult {
	return StageResult{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// WithCount returns a copy with one counter set.
func (r StageResult) WithCount(name string, value int) StageResult {
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[name] = value
	return r
}

// WithDiagnostic returns a copy with one diagnostic attached.
func (r StageResult) WithDiagnostic(name string, value interface{}) StageResult {
	if r.Diagnostics == nil {
		r.Diagnostics = make(map[string]interface{})
	}
	r.Diagnostics[name] = value
	return r
}
