package workpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedWork(t *testing.T) {
	p := New(4)

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			count.Add(1)
			wg.Done()
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	p.Shutdown()

	if count.Load() != 100 {
		t.Errorf("expected 100 tasks executed, got %d", count.Load())
	}
}

func TestPoolSubmitFromWorker(t *testing.T) {
	// A unit must be able to submit children without blocking, even when
	// fan-out exceeds the worker count.
	p := New(2)

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	err := p.Submit(func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			wg.Add(1)
			if err := p.Submit(func() {
				count.Add(1)
				wg.Done()
			}); err != nil {
				wg.Done()
				t.Errorf("child Submit: %v", err)
			}
		}
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	wg.Wait()
	p.Shutdown()

	if count.Load() != 50 {
		t.Errorf("expected 50 children executed, got %d", count.Load())
	}
}

func TestPoolRejectsAfterStop(t *testing.T) {
	p := New(1)
	p.Stop()

	if err := p.Submit(func() {}); err != ErrStopped {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if !p.Stopped() {
		t.Error("Stopped() should report true after Stop")
	}
	p.Shutdown()
}

func TestBarrierWaitsForAllParties(t *testing.T) {
	b := NewBarrier(1)
	p := New(4)
	defer p.Shutdown()

	var done atomic.Int64
	var submit func(depth int)
	submit = func(depth int) {
		defer b.Arrive()
		done.Add(1)
		if depth == 0 {
			return
		}
		for i := 0; i < 3; i++ {
			b.Register(1)
			child := depth - 1
			if err := p.Submit(func() { submit(child) }); err != nil {
				b.Arrive()
			}
		}
	}

	b.Register(1)
	if err := p.Submit(func() { submit(3) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	b.ArriveAndWait()

	// 1 + 3 + 9 + 27 units for depth 3, branching 3.
	if done.Load() != 40 {
		t.Errorf("expected 40 units completed before Wait returned, got %d", done.Load())
	}
	if got := b.Registered(); got != 41 {
		t.Errorf("expected 41 registered parties (self + 40 units), got %d", got)
	}
}

func TestBarrierConcurrentRegisterAndArrive(t *testing.T) {
	b := NewBarrier(1)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Register(1)
				go b.Arrive()
			}
		}()
	}
	wg.Wait()
	b.ArriveAndWait()

	if !b.Terminated() {
		t.Error("barrier should be terminated after all parties arrived")
	}
}

func TestBarrierForceTermination(t *testing.T) {
	b := NewBarrier(2) // self + one party that never arrives

	released := make(chan struct{})
	go func() {
		b.ArriveAndWait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("waiter released before termination")
	case <-time.After(20 * time.Millisecond):
	}

	b.ForceTermination()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("waiter not released by ForceTermination")
	}

	// Late registration and arrival must be clean no-ops.
	b.Register(1)
	b.Arrive()
}
