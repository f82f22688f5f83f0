package attestation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// RetryPolicy bounds the retry wrapper around report production. Retry count
// and interval are caller policy, never hard-coded into the flow.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts uint64

	// Interval is the fixed wait between attempts.
	Interval time.Duration
}

// DefaultRetryPolicy is a modest default for transient platform hiccups.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Interval: 2 * time.Second}

// retryable reports whether an attestation failure is worth another attempt.
// Transport failures and busy/timeout/network statuses are transient;
// everything else (e.g. an unprovisioned platform) is deterministic and
// retrying would only repeat it.
func retryable(err error) bool {
	var transportErr *interfaces.TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var enclaveErr *interfaces.EnclaveError
	if errors.As(err, &enclaveErr) {
		switch enclaveErr.Status {
		case interfaces.StatusBusy, interfaces.StatusServiceTimeout, interfaces.StatusNetworkFailure:
			return true
		}
	}
	return false
}

// ProduceReportWithRetry runs ProduceReport under the given policy, stopping
// early on deterministic rejections and on context cancellation.
func (s *Service) ProduceReportWithRetry(ctx context.Context, handle interfaces.EnclaveHandle, policy RetryPolicy) error {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy
	}

	operation := func() error {
		err := s.ProduceReport(handle)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		s.log.Warn("Retrying attestation report production", "err", err)
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), policy.MaxAttempts-1),
		ctx,
	)
	return backoff.Retry(operation, bo)
}
