package workpool

import "sync"

// Barrier is a dynamic counting barrier: an up/down latch whose party count
// may grow while other parties are already arriving. A unit that discovers
// more work registers the new units before submitting them and arrives only
// afterwards, so the pending count can never touch zero while a registration
// is still owed.
//
// Registration and arrival take the same lock, so no completion signal can
// race a late registration.
type Barrier struct {
	mu         sync.Mutex
	pending    int
	registered int
	terminated bool
	done       chan struct{}
}

// NewBarrier creates a barrier with the given initial party count. The
// top-level caller counts itself as one party and arrives when it has
// finished submitting root units.
func NewBarrier(parties int) *Barrier {
	return &Barrier{
		pending:    parties,
		registered: parties,
		done:       make(chan struct{}),
	}
}

// Register adds n parties. After termination it is a no-op: late units are
// not tracked because all waiters were already released.
func (b *Barrier) Register(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.terminated {
		return
	}
	b.pending += n
	b.registered += n
}

// Arrive marks one party as done. When the last party arrives, all waiters
// are released.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.terminated {
		return
	}
	b.pending--
	if b.pending == 0 {
		b.terminated = true
		close(b.done)
	}
}

// ArriveAndWait arrives for the calling party and blocks until every
// registered party has arrived or the barrier was force-terminated.
func (b *Barrier) ArriveAndWait() {
	b.Arrive()
	<-b.done
}

// ForceTermination releases all waiters immediately. Used for cooperative
// cancellation: in-flight units still finish, but nobody waits for them.
func (b *Barrier) ForceTermination() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.terminated {
		return
	}
	b.terminated = true
	close(b.done)
}

// Terminated reports whether the barrier has been satisfied or forced.
func (b *Barrier) Terminated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated
}

// Registered returns the total number of parties ever registered, including
// the initial ones.
func (b *Barrier) Registered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered
}
