package enclave

import (
	"sync"
	"time"
)

// DefaultTCSCount is the number of thread-control structures compiled into
// the enclave. The doorbell capacity must match the enclave's build-time
// value exactly or legitimate calls will be spuriously admitted or denied.
const DefaultTCSCount = 16

// DefaultAcquireTimeout bounds how long a caller waits for a free slot. It
// covers the worst-case enclave call latency; callers needing different
// behavior pass an explicit timeout.
const DefaultAcquireTimeout = 30 * time.Second

// Doorbell is a bounded-slot admission controller limiting how many callers
// may be inside the enclave concurrently. Slots are modeled as a buffered
// channel: a receive takes a slot, a send returns it and wakes exactly one
// waiter.
type Doorbell struct {
	capacity int
	timeout  time.Duration
	slots    chan struct{}
}

// NewDoorbell creates a doorbell with the given slot capacity and default
// acquire timeout. Zero values select DefaultTCSCount and
// DefaultAcquireTimeout.
func NewDoorbell(capacity int, timeout time.Duration) *Doorbell {
	if capacity <= 0 {
		capacity = DefaultTCSCount
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	slots := make(chan struct{}, capacity)
	for i := 0; i < capacity; i++ {
		slots <- struct{}{}
	}

	return &Doorbell{capacity: capacity, timeout: timeout, slots: slots}
}

// Acquire requests an execution slot with the doorbell's default timeout.
func (d *Doorbell) Acquire(reentrant bool) (*QueryToken, bool) {
	return d.AcquireWithTimeout(d.timeout, reentrant)
}

// AcquireWithTimeout requests an execution slot, waiting up to timeout for
// one to free up. A reentrant acquisition supports calls made from within an
// already-admitted execution context: it returns a token immediately without
// touching the slot counter, so the holder cannot deadlock on its own
// reservation.
//
// A denied acquisition (no token, false) is a normal outcome under load, not
// a failure; no slot is consumed.
func (d *Doorbell) AcquireWithTimeout(timeout time.Duration, reentrant bool) (*QueryToken, bool) {
	if reentrant {
		return &QueryToken{doorbell: d, reentrant: true}, true
	}

	select {
	case <-d.slots:
		return &QueryToken{doorbell: d}, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d.slots:
		return &QueryToken{doorbell: d}, true
	case <-timer.C:
		return nil, false
	}
}

// Capacity returns the fixed slot count.
func (d *Doorbell) Capacity() int { return d.capacity }

// Available returns the current number of free slots.
func (d *Doorbell) Available() int { return len(d.slots) }

// QueryToken proves the holder has a reserved enclave slot, or is a
// reentrant call that bypassed reservation. Tokens are created only by the
// doorbell and must be released on every exit path; releasing more than once
// is a no-op.
type QueryToken struct {
	doorbell  *Doorbell
	reentrant bool
	released  sync.Once
}

// Release returns the slot to the doorbell. Reentrant tokens never touch the
// slot counter.
func (t *QueryToken) Release() {
	t.released.Do(func() {
		if !t.reentrant {
			t.doorbell.slots <- struct{}{}
		}
	})
}
