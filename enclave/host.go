package enclave

import (
	"log/slog"
	"time"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// HostConfig tunes the host-side enclave state. Zero values select the
// defaults documented on the respective fields.
type HostConfig struct {
	// TCSCount is the doorbell capacity; must equal the TCS count compiled
	// into the enclave. Defaults to DefaultTCSCount.
	TCSCount int

	// AcquireTimeout is the default doorbell wait bound. Defaults to
	// DefaultAcquireTimeout.
	AcquireTimeout time.Duration
}

// Host bundles the process-wide enclave state: the memoized handle, the
// configuration gate, and the admission doorbell. It replaces ambient global
// state with an explicitly constructed object so tests can build a fresh
// host per case.
type Host struct {
	Handles  *HandleManager
	Gate     *ConfigGate
	Doorbell *Doorbell

	bridge interfaces.EnclaveBridge
}

// NewHost wires a host from its collaborators.
func NewHost(cfg HostConfig, loader interfaces.EnclaveLoader, bridge interfaces.EnclaveBridge, log *slog.Logger) *Host {
	handles := NewHandleManager(loader, log)
	return &Host{
		Handles:  handles,
		Gate:     NewConfigGate(handles, bridge, log),
		Doorbell: NewDoorbell(cfg.TCSCount, cfg.AcquireTimeout),
		bridge:   bridge,
	}
}

// Enclave returns the memoized enclave handle.
func (h *Host) Enclave() (interfaces.EnclaveHandle, error) {
	return h.Handles.Enclave()
}

// Configure issues the one-time runtime configuration call.
func (h *Host) Configure(config interfaces.RuntimeConfig) error {
	return h.Gate.Configure(config)
}

// Bridge returns the foreign-call bridge the host was built with.
func (h *Host) Bridge() interfaces.EnclaveBridge {
	return h.bridge
}
