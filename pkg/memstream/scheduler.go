package memstream

import "sync"

// Scheduler runs the engine's background jobs: importance revision and
// reflection. The Engine never blocks a conversational turn on these.
type Scheduler interface {
	// Schedule runs fn, either concurrently or inline.
	Schedule(fn func())

	// Wait blocks until all scheduled jobs have finished.
	Wait()
}

// GoScheduler runs each job in its own goroutine and tracks completion with
// a WaitGroup. It is the default scheduler.
type GoScheduler struct {
	wg sync.WaitGroup
}

// NewGoScheduler creates a goroutine-backed scheduler.
func NewGoScheduler() *GoScheduler {
	return &GoScheduler{}
}

// Schedule runs fn in a new goroutine.
func (s *GoScheduler) Schedule(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Wait blocks until all scheduled jobs complete.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}

// SyncScheduler runs each job inline on the calling goroutine. It makes
// background behavior deterministic in tests.
type SyncScheduler struct{}

// Schedule runs fn immediately.
func (SyncScheduler) Schedule(fn func()) { fn() }

// Wait is a no-op: inline jobs are already complete.
func (SyncScheduler) Wait() {}
