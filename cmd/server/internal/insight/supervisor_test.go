package insight

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSupervisor(t *testing.T) {
	t.Run("shutdown waits for spawned tasks", func(t *testing.T) {
		sup := NewSupervisor()
		var done atomic.Int32
		for i := 0; i < 5; i++ {
			sup.Spawn(func() {
				time.Sleep(10 * time.Millisecond)
				done.Add(1)
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := sup.Shutdown(ctx); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
		if got := done.Load(); got != 5 {
			t.Errorf("completed tasks = %d, want 5", got)
		}
	})

	t.Run("shutdown returns deadline error when tasks hang", func(t *testing.T) {
		sup := NewSupervisor()
		release := make(chan struct{})
		sup.Spawn(func() { <-release })

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := sup.Shutdown(ctx); err == nil {
			t.Error("Shutdown() = nil, want deadline error")
		}
		close(release)
	})

	t.Run("context cancelled on shutdown", func(t *testing.T) {
		sup := NewSupervisor()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		sup.Shutdown(ctx)

		select {
		case <-sup.Context().Done():
		default:
			t.Error("supervisor context not cancelled after shutdown")
		}
	})
}
