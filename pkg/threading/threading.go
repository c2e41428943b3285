// Package threading runs fire-and-forget background tasks that must still be
// drained or cancelled when the process shuts down.
package threading

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("threading: runner stopped")

type Threading struct {
	lock    sync.Mutex
	wait    sync.WaitGroup
	stopped bool
	nextID  uint64
	running map[uint64]context.CancelFunc
	log     *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Threading {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Threading{
		running: make(map[uint64]context.CancelFunc),
		log:     log,
	}
}

// Go starts run in its own goroutine. The ctx handed to run keeps the values
// of the caller's ctx but not its cancellation, so a task outlives the request
// that scheduled it. Stop cancels it.
func (t *Threading) Go(ctx context.Context, name string, run func(ctx context.Context)) error {
	t.lock.Lock()
	if t.stopped {
		t.lock.Unlock()
		return ErrStopped
	}
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	id := t.nextID
	t.nextID++
	t.running[id] = cancel
	t.wait.Add(1)
	t.lock.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 10240)
				n := runtime.Stack(buf, false)
				t.log.Errorw("background task panicked", "task", name, "panic", r, "stack", string(buf[:n]))
			}
			t.lock.Lock()
			delete(t.running, id)
			t.lock.Unlock()
			cancel()
			t.wait.Done()
		}()

		run(taskCtx)
	}()

	return nil
}

// Running reports how many tasks have not finished yet.
func (t *Threading) Running() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.running)
}

// Stop refuses new tasks and waits up to timeout for the running ones; what
// is still running afterwards gets cancelled. A zero timeout cancels at once.
func (t *Threading) Stop(timeout time.Duration) {
	t.lock.Lock()
	t.stopped = true
	t.lock.Unlock()

	done := make(chan struct{})
	go func() {
		t.wait.Wait()
		close(done)
	}()

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-done:
			return
		case <-timer.C:
		}
	}

	t.lock.Lock()
	pending := len(t.running)
	for _, cancel := range t.running {
		cancel()
	}
	t.lock.Unlock()

	if pending > 0 {
		t.log.Warnw("cancelled unfinished background tasks", "count", pending)
	}
}
