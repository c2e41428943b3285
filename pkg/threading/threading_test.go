package threading

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGo_RunsAndDrains(t *testing.T) {
	runner := New(nil)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		if err := runner.Go(context.Background(), "count", func(ctx context.Context) {
			count.Add(1)
		}); err != nil {
			t.Fatalf("Go() error = %v", err)
		}
	}

	runner.Stop(time.Second)

	if got := count.Load(); got != 5 {
		t.Errorf("ran %d tasks, want 5", got)
	}
	if runner.Running() != 0 {
		t.Errorf("Running() = %d after Stop", runner.Running())
	}
}

func TestGo_DetachedFromCallerCancel(t *testing.T) {
	runner := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan error, 1)

	_ = runner.Go(ctx, "detached", func(taskCtx context.Context) {
		close(started)
		<-release
		result <- taskCtx.Err()
	})

	<-started
	cancel()
	close(release)

	if err := <-result; err != nil {
		t.Errorf("task ctx error = %v, want nil after caller cancel", err)
	}
	runner.Stop(time.Second)
}

func TestStop_CancelsAfterTimeout(t *testing.T) {
	runner := New(nil)

	cancelled := make(chan struct{})
	_ = runner.Go(context.Background(), "slow", func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})

	runner.Stop(10 * time.Millisecond)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled")
	}
}

func TestGo_AfterStop(t *testing.T) {
	runner := New(nil)
	runner.Stop(0)

	err := runner.Go(context.Background(), "late", func(ctx context.Context) {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Go() after Stop error = %v, want ErrStopped", err)
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	runner := New(nil)

	_ = runner.Go(context.Background(), "boom", func(ctx context.Context) {
		panic("boom")
	})

	runner.Stop(time.Second)
	if runner.Running() != 0 {
		t.Errorf("Running() = %d, want 0 after panic", runner.Running())
	}
}
