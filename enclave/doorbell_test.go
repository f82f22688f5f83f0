package enclave

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoorbellCapacityInvariant(t *testing.T) {
	d := NewDoorbell(4, time.Second)
	require.Equal(t, 4, d.Capacity())
	require.Equal(t, 4, d.Available())

	tokens := make([]*QueryToken, 0, 4)
	for i := 0; i < 4; i++ {
		token, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
		require.True(t, ok)
		tokens = append(tokens, token)
		assert.Equal(t, 4-i-1, d.Available())
	}

	// Saturated: the 5th acquisition is denied.
	_, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	assert.False(t, ok)
	assert.Equal(t, 0, d.Available())

	for i, token := range tokens {
		token.Release()
		assert.Equal(t, i+1, d.Available())
	}
	assert.Equal(t, 4, d.Available())
}

func TestDoorbellReentrantBypass(t *testing.T) {
	d := NewDoorbell(2, time.Second)

	token, ok := d.AcquireWithTimeout(10*time.Millisecond, true)
	require.True(t, ok)
	assert.Equal(t, 2, d.Available(), "reentrant acquisition must not touch the slot counter")

	token.Release()
	assert.Equal(t, 2, d.Available(), "reentrant release must not increment the slot counter")
}

func TestDoorbellReentrantUnderSaturation(t *testing.T) {
	d := NewDoorbell(1, time.Second)

	outer, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	require.True(t, ok)

	// A call made from within the admitted context re-enters without
	// deadlocking on its own reservation.
	inner, ok := d.AcquireWithTimeout(10*time.Millisecond, true)
	require.True(t, ok)

	inner.Release()
	outer.Release()
	assert.Equal(t, 1, d.Available())
}

func TestDoorbellSaturationThirdCallerBlocks(t *testing.T) {
	d := NewDoorbell(2, time.Second)

	first, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	require.True(t, ok)
	second, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	require.True(t, ok)

	admitted := make(chan *QueryToken)
	go func() {
		token, ok := d.AcquireWithTimeout(5*time.Second, false)
		require.True(t, ok)
		admitted <- token
	}()

	select {
	case <-admitted:
		t.Fatal("third caller admitted while doorbell saturated")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()

	select {
	case token := <-admitted:
		token.Release()
	case <-time.After(time.Second):
		t.Fatal("third caller not admitted after a release")
	}

	second.Release()
	assert.Equal(t, 2, d.Available())
}

func TestDoorbellTimeoutCorrectness(t *testing.T) {
	d := NewDoorbell(1, time.Second)

	token, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	require.True(t, ok)
	defer token.Release()

	const timeout = 100 * time.Millisecond
	start := time.Now()
	_, ok = d.AcquireWithTimeout(timeout, false)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, timeout, "denial must not happen before the timeout")
	assert.Equal(t, 0, d.Available(), "denied acquisition must not consume a slot")
}

func TestDoorbellDoubleReleaseIsNoop(t *testing.T) {
	d := NewDoorbell(2, time.Second)

	token, ok := d.AcquireWithTimeout(10*time.Millisecond, false)
	require.True(t, ok)

	token.Release()
	token.Release()
	assert.Equal(t, 2, d.Available(), "double release must not create a slot")
}

func TestDoorbellConcurrentChurn(t *testing.T) {
	const capacity = 3
	d := NewDoorbell(capacity, time.Second)

	var (
		mu          sync.Mutex
		outstanding int
		peak        int
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				token, ok := d.AcquireWithTimeout(time.Second, false)
				if !ok {
					continue
				}

				mu.Lock()
				outstanding++
				if outstanding > peak {
					peak = outstanding
				}
				mu.Unlock()

				mu.Lock()
				outstanding--
				mu.Unlock()
				token.Release()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, capacity, "outstanding tokens exceeded capacity")
	assert.Equal(t, capacity, d.Available(), "all slots must return after churn")
}
