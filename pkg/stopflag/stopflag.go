// Package stopflag implements the cooperative cancellation signal shared by
// the query and download engines. Workers poll the flag at defined
// checkpoints (between search nodes, between result pages, before task
// submission, after every streamed chunk, before every retry round) instead
// of being preempted. Once set, a flag stays set for the lifetime of its
// owner.
package stopflag

import "sync/atomic"

// Flag is a terminal, process-wide stop signal. The zero value is usable.
type Flag struct {
	stopped atomic.Bool
}

// New returns an unset flag.
func New() *Flag {
	return &Flag{}
}

// Stop sets the flag. Safe to call multiple times and from any goroutine.
func (f *Flag) Stop() {
	f.stopped.Store(true)
}

// Stopped reports whether the flag has been set.
func (f *Flag) Stopped() bool {
	if f == nil {
		return false
	}
	return f.stopped.Load()
}
