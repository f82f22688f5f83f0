package enclave

import (
	"log/slog"
	"sync"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// ConfigGate performs the one-time runtime configuration enclave-call.
//
// The gate marks itself configured before issuing the call (mark-then-call),
// which guarantees at most one configuration enclave-call even when multiple
// goroutines race in. The cost is that a failed attempt stays recorded as
// "attempted": the gate does not retry, and recovery is a process restart.
type ConfigGate struct {
	handles *HandleManager
	bridge  interfaces.EnclaveBridge
	log     *slog.Logger

	mu         sync.Mutex
	configured bool
}

// NewConfigGate creates a gate issuing configuration through the given
// bridge against the manager's enclave.
func NewConfigGate(handles *HandleManager, bridge interfaces.EnclaveBridge, log *slog.Logger) *ConfigGate {
	return &ConfigGate{handles: handles, bridge: bridge, log: log}
}

// Configure passes the runtime configuration into the enclave. Idempotent:
// once any call has been attempted, later calls return nil immediately
// without touching the enclave. The configuration lock is released before
// the enclave-call so the gate never holds a lock across a potentially slow
// hardware operation.
func (g *ConfigGate) Configure(config interfaces.RuntimeConfig) error {
	g.mu.Lock()
	if g.configured {
		g.mu.Unlock()
		return nil
	}
	g.configured = true
	g.mu.Unlock()

	handle, err := g.handles.Enclave()
	if err != nil {
		return err
	}

	g.log.Info("Configuring enclave runtime", "moduleCacheSize", config.ModuleCacheSize)
	return interfaces.CallStatus(g.bridge.ConfigureRuntime(handle, config))
}

// Configured reports whether a configuration attempt has been made.
func (g *ConfigGate) Configured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configured
}
