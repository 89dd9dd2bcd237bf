// Package insight launches and supervises the detached enrichment work
// triggered by transcript fragments: sentiment on every fragment, summary and
// retrieval-augmented insight once the meeting transcript is long enough.
package insight

import (
	"context"
	"sync"
)

// Supervisor tracks detached background tasks so process shutdown can cancel
// and await outstanding work instead of leaking goroutines. Tasks observe
// cancellation through Context().
type Supervisor struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSupervisor creates a supervisor rooted in a fresh cancellable context.
func NewSupervisor() *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{ctx: ctx, cancel: cancel}
}

// Spawn runs fn on a tracked goroutine.
func (s *Supervisor) Spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Context returns the root context cancelled on Shutdown.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Shutdown cancels the root context and waits for tracked tasks to finish,
// or for ctx to expire, whichever comes first.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
