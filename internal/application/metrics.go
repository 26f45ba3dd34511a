package application

import "time"

// MetricsRecorder receives service-level observations. internal/metrics
// provides the Prometheus implementation.
type MetricsRecorder interface {
	ObserveValidation(outcome string, elapsed time.Duration)
	ObserveGridBuild(elapsed time.Duration)
	ObserveStatusResolution(status string)
	ObserveAuditCache(hit bool)
}

// Validation outcomes reported to MetricsRecorder.
const (
	OutcomeFree     = "free"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

type noopRecorder struct{}

func (noopRecorder) ObserveValidation(string, time.Duration) {}
func (noopRecorder) ObserveGridBuild(time.Duration)          {}
func (noopRecorder) ObserveStatusResolution(string)          {}
func (noopRecorder) ObserveAuditCache(bool)                  {}

func defaultRecorder(recorder MetricsRecorder) MetricsRecorder {
	if recorder == nil {
		return noopRecorder{}
	}
	return recorder
}
