package ingest

import (
	"fmt"
	"sync"
)

// maxRecent bounds the message ring returned by Snapshot.
const maxRecent = 50

// Status is a point-in-time view of the pipeline, safe to poll while a run
// is active.
type Status struct {
	Running        bool
	RecentMessages []string
}

// StatusStore collects progress from a run for non-blocking polling. It is
// handed to the runner rather than held as a package global, so tests can
// observe progress transitions directly.
type StatusStore struct {
	mu      sync.Mutex
	running bool

	action   string
	lastFile string
	chunks   int

	messages []string
}

// NewStatusStore returns an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// SetRunning flips the running flag, mirroring the run lock.
func (s *StatusStore) SetRunning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = v
}

// Append records one progress message, dropping the oldest beyond the ring
// capacity. It never blocks on a consumer.
func (s *StatusStore) Append(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	if len(s.messages) > maxRecent {
		s.messages = s.messages[len(s.messages)-maxRecent:]
	}
}

// Track updates the live progress fields read by the heartbeat. An empty
// file keeps the previous one.
func (s *StatusStore) Track(action, file string, chunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = action
	if file != "" {
		s.lastFile = file
	}
	s.chunks = chunks
}

// ProgressLine formats the tracked progress for a heartbeat message, or ""
// when nothing has been tracked yet.
func (s *StatusStore) ProgressLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action == "" {
		return ""
	}
	if s.lastFile == "" {
		return s.action
	}
	return fmt.Sprintf("%s | %s (%d chunks)", s.action, s.lastFile, s.chunks)
}

// Snapshot returns a copy of the current state.
func (s *StatusStore) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]string, len(s.messages))
	copy(msgs, s.messages)
	return Status{Running: s.running, RecentMessages: msgs}
}
