package ingest

import "sync/atomic"

// RunLock gives ingest runs single-flight semantics without blocking: a
// second caller is rejected immediately instead of queueing behind a run
// that may take minutes.
type RunLock struct {
	held atomic.Bool
}

// TryAcquire claims the lock if it is free and reports whether it did.
func (l *RunLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the caller that acquired it may release it.
func (l *RunLock) Release() {
	l.held.Store(false)
}
