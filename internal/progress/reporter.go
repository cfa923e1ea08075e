// Package progress exposes the observable side effects of an engine run: a
// current-item label, a monotonically increasing request counter, and
// terminal progress rendering. How (and whether) these are displayed is
// entirely the caller's concern; engines only feed them.
package progress

import (
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Reporter tracks requests issued and the item currently being processed.
// All methods are safe for concurrent use by pool workers.
type Reporter struct {
	requests atomic.Int64
	current  atomic.Value // string
	spinner  *progressbar.ProgressBar
}

// NewReporter creates a silent reporter. Attach a spinner for terminal runs.
func NewReporter() *Reporter {
	r := &Reporter{}
	r.current.Store("")
	return r
}

// AttachSpinner renders an indeterminate progress spinner with a request
// counter. Call only when stderr is a terminal.
func (r *Reporter) AttachSpinner(description string) {
	r.spinner = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
	)
}

// AddRequest records one remote call and returns the new total.
func (r *Reporter) AddRequest() int64 {
	n := r.requests.Add(1)
	if r.spinner != nil {
		_ = r.spinner.Add(1)
	}
	return n
}

// Requests returns the number of remote calls issued so far.
func (r *Reporter) Requests() int64 {
	return r.requests.Load()
}

// SetCurrent updates the current-item label.
func (r *Reporter) SetCurrent(label string) {
	r.current.Store(label)
	if r.spinner != nil {
		r.spinner.Describe(label)
	}
}

// Current returns the current-item label.
func (r *Reporter) Current() string {
	return r.current.Load().(string)
}

// Finish stops the spinner, if any.
func (r *Reporter) Finish() {
	if r.spinner != nil {
		_ = r.spinner.Finish()
	}
}
