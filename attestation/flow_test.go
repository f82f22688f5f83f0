package attestation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// scriptedBridge returns a programmed sequence of status pairs for report
// production and a fixed result for seed exchange.
type scriptedBridge struct {
	mu           sync.Mutex
	reportScript [][2]interfaces.Status
	reportCalls  int

	seed          interfaces.EncryptedSeed
	seedTransport interfaces.Status
	seedRetval    interfaces.Status
}

func (b *scriptedBridge) ConfigureRuntime(handle interfaces.EnclaveHandle, config interfaces.RuntimeConfig) (interfaces.Status, interfaces.Status) {
	return interfaces.StatusSuccess, interfaces.StatusSuccess
}

func (b *scriptedBridge) ProduceAttestationReport(handle interfaces.EnclaveHandle) (interfaces.Status, interfaces.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.reportCalls
	b.reportCalls++
	if idx >= len(b.reportScript) {
		return interfaces.StatusSuccess, interfaces.StatusSuccess
	}
	return b.reportScript[idx][0], b.reportScript[idx][1]
}

func (b *scriptedBridge) GetEncryptedSeed(handle interfaces.EnclaveHandle, cert []byte) (interfaces.EncryptedSeed, interfaces.Status, interfaces.Status) {
	return b.seed, b.seedTransport, b.seedRetval
}

func (b *scriptedBridge) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reportCalls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nonZeroSeed() interfaces.EncryptedSeed {
	var seed interfaces.EncryptedSeed
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestProduceReportStatusMapping(t *testing.T) {
	for name, tc := range map[string]struct {
		transport     interfaces.Status
		retval        interfaces.Status
		wantErr       bool
		transportKind bool
	}{
		"success":           {interfaces.StatusSuccess, interfaces.StatusSuccess, false, false},
		"transport failure": {interfaces.StatusEnclaveLost, interfaces.StatusSuccess, true, true},
		"enclave rejection": {interfaces.StatusSuccess, interfaces.StatusPlatformNotProvisioned, true, false},
	} {
		t.Run(name, func(t *testing.T) {
			bridge := &scriptedBridge{reportScript: [][2]interfaces.Status{{tc.transport, tc.retval}}}
			svc := NewService(bridge, testLogger())

			err := svc.ProduceReport(1)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			var transportErr *interfaces.TransportError
			var enclaveErr *interfaces.EnclaveError
			if tc.transportKind {
				require.ErrorAs(t, err, &transportErr)
				assert.Equal(t, tc.transport, transportErr.Status)
			} else {
				require.ErrorAs(t, err, &enclaveErr)
				assert.Equal(t, tc.retval, enclaveErr.Status)
			}
		})
	}
}

func TestGetEncryptedSeedSuccess(t *testing.T) {
	bridge := &scriptedBridge{
		seed:          nonZeroSeed(),
		seedTransport: interfaces.StatusSuccess,
		seedRetval:    interfaces.StatusSuccess,
	}
	svc := NewService(bridge, testLogger())

	seed, err := svc.GetEncryptedSeed(1, []byte("recipient cert"))
	require.NoError(t, err)
	assert.Equal(t, nonZeroSeed(), seed)
}

func TestGetEncryptedSeedRejectsEmptySeed(t *testing.T) {
	// A zero buffer under a success status must be rejected.
	bridge := &scriptedBridge{
		seedTransport: interfaces.StatusSuccess,
		seedRetval:    interfaces.StatusSuccess,
	}
	svc := NewService(bridge, testLogger())

	_, err := svc.GetEncryptedSeed(1, []byte("recipient cert"))
	require.ErrorIs(t, err, interfaces.ErrEmptySeed)
}

func TestGetEncryptedSeedEnclaveRejection(t *testing.T) {
	bridge := &scriptedBridge{
		seed:          nonZeroSeed(),
		seedTransport: interfaces.StatusSuccess,
		seedRetval:    interfaces.StatusInvalidParameter,
	}
	svc := NewService(bridge, testLogger())

	_, err := svc.GetEncryptedSeed(1, nil)
	var enclaveErr *interfaces.EnclaveError
	require.ErrorAs(t, err, &enclaveErr)
	assert.Equal(t, interfaces.StatusInvalidParameter, enclaveErr.Status)
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	bridge := &scriptedBridge{reportScript: [][2]interfaces.Status{
		{interfaces.StatusEnclaveLost, interfaces.StatusSuccess},
		{interfaces.StatusSuccess, interfaces.StatusBusy},
		{interfaces.StatusSuccess, interfaces.StatusSuccess},
	}}
	svc := NewService(bridge, testLogger())

	policy := RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond}
	require.NoError(t, svc.ProduceReportWithRetry(context.Background(), 1, policy))
	assert.Equal(t, 3, bridge.calls())
}

func TestRetryStopsOnDeterministicRejection(t *testing.T) {
	bridge := &scriptedBridge{reportScript: [][2]interfaces.Status{
		{interfaces.StatusSuccess, interfaces.StatusPlatformNotProvisioned},
	}}
	svc := NewService(bridge, testLogger())

	policy := RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond}
	err := svc.ProduceReportWithRetry(context.Background(), 1, policy)

	var enclaveErr *interfaces.EnclaveError
	require.ErrorAs(t, err, &enclaveErr)
	assert.Equal(t, interfaces.StatusPlatformNotProvisioned, enclaveErr.Status)
	assert.Equal(t, 1, bridge.calls(), "deterministic rejection must not be retried")
}

func TestRetryExhaustsAttempts(t *testing.T) {
	bridge := &scriptedBridge{reportScript: [][2]interfaces.Status{
		{interfaces.StatusEnclaveLost, interfaces.StatusSuccess},
		{interfaces.StatusEnclaveLost, interfaces.StatusSuccess},
		{interfaces.StatusEnclaveLost, interfaces.StatusSuccess},
	}}
	svc := NewService(bridge, testLogger())

	policy := RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}
	err := svc.ProduceReportWithRetry(context.Background(), 1, policy)

	var transportErr *interfaces.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 3, bridge.calls())
}
