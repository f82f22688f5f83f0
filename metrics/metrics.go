// Package metrics exposes Prometheus-format counters for the enclave host on
// a dedicated listen address.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ruteri/sgx-enclave-host/common"
)

// namespace prefixes every metric name, Prometheus-style.
const namespace = common.PackageName + "_"

// Counters incremented by the attestation and admission paths.
var (
	AttestationReportsProduced = metrics.NewCounter(namespace + "attestation_reports_produced_total")
	AttestationReportFailures  = metrics.NewCounter(namespace + "attestation_report_failures_total")
	SeedsProvisioned           = metrics.NewCounter(namespace + "seeds_provisioned_total")
	SeedProvisionFailures      = metrics.NewCounter(namespace + "seed_provision_failures_total")
	DoorbellDenied             = metrics.NewCounter(namespace + "doorbell_admission_denied_total")
)

// MetricsServer serves /metrics in Prometheus text format.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address.
func New(listenAddr string) (*MetricsServer, error) {
	if listenAddr == "" {
		return nil, fmt.Errorf("metrics server requires a listen address")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
