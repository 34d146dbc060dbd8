// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from load, verify and clean runs.
//
// A Recorder wraps one Backend and is passed to the components that report
// metrics. A nil *Recorder, or one built with a nil Backend, records nothing,
// so metrics are always safe to call even when no backend is configured.
// Concrete metric systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names emitted by Recorder.
const (
	StepTotal           = "loadctl_step_total"
	StepDurationSeconds = "loadctl_step_duration_seconds"
	RowsTotal           = "loadctl_rows_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// Recorder records pipeline metrics for one job against a Backend.
type Recorder struct {
	job     string
	backend Backend
}

// NewRecorder returns a Recorder for job. A nil backend records nothing.
func NewRecorder(job string, b Backend) *Recorder {
	if b == nil {
		b = nopBackend{}
	}
	return &Recorder{job: job, backend: b}
}

// Nop returns a Recorder that discards everything.
func Nop() *Recorder { return NewRecorder("", nil) }

// RecordStep counts one execution of step for table and records its latency.
func (r *Recorder) RecordStep(step, table string, err error, d time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    r.job,
		"step":   step,
		"table":  table,
		"status": status,
	}
	r.backend.IncCounter(StepTotal, 1, lbls)
	r.backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments a row-level counter. Typical kinds are "read",
// "loaded" and "rejected". Non-positive deltas are ignored.
func (r *Recorder) RecordRows(table, kind string, delta int64) {
	if r == nil || delta <= 0 {
		return
	}
	r.backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":   r.job,
		"table": table,
		"kind":  kind,
	})
}

// Flush delegates to the backend.
func (r *Recorder) Flush() error {
	if r == nil {
		return nil
	}
	return r.backend.Flush()
}
