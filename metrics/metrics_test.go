package metrics

import (
	"bytes"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
)

func TestCountersCarryNamespacePrefix(t *testing.T) {
	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	out := buf.String()

	for _, name := range []string{
		"sgx_enclave_host_attestation_reports_produced_total",
		"sgx_enclave_host_attestation_report_failures_total",
		"sgx_enclave_host_seeds_provisioned_total",
		"sgx_enclave_host_seed_provision_failures_total",
		"sgx_enclave_host_doorbell_admission_denied_total",
	} {
		assert.Contains(t, out, name)
	}
}

func TestNewRequiresListenAddress(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
