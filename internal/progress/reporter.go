// Package progress reports pipeline progress as serialized callback emissions
// instead of a shared mutable field, so observers never race stage writers.
package progress

import "sync"

// Func receives a progress value in [0, 1].
type Func func(float64)

// Reporter emits monotonic progress values to a single callback. All writes
// are serialized; values that would move progress backwards are dropped.
type Reporter struct {
	mu   sync.Mutex
	fn   Func
	last float64
}

// NewReporter wraps fn, which may be nil for callers that don't observe
// progress.
func NewReporter(fn Func) *Reporter {
	return &Reporter{fn: fn}
}

// Report emits v, clamped to [0, 1] and never below a previously reported
// value.
func (r *Reporter) Report(v float64) {
	if r == nil {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v < r.last {
		return
	}
	r.last = v
	if r.fn != nil {
		r.fn(v)
	}
}

// Last returns the most recently reported value.
func (r *Reporter) Last() float64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
