package enclave

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// EnclaveFileName is the well-known name of the signed enclave image.
const EnclaveFileName = "libenclave.signed.so"

// EnclaveDirEnv names the environment variable that overrides the first
// directory searched for the enclave image. Defaults to the current
// directory when unset.
const EnclaveDirEnv = "SGX_ENCLAVE_DIR"

// searchPaths are tried after the operator-configured directory, in order.
var searchPaths = []string{"/lib", "/usr/lib", "/usr/local/lib"}

// HandleManager locates the enclave image and creates exactly one enclave
// instance. The creation result, success or failure, is memoized: all
// callers of Enclave observe the same outcome and creation is attempted at
// most once per manager.
type HandleManager struct {
	loader interfaces.EnclaveLoader
	log    *slog.Logger

	once   sync.Once
	handle interfaces.EnclaveHandle
	err    error
}

// NewHandleManager creates a manager that will instantiate the enclave via
// the given loader on first use.
func NewHandleManager(loader interfaces.EnclaveLoader, log *slog.Logger) *HandleManager {
	return &HandleManager{loader: loader, log: log}
}

// Enclave returns the process enclave handle, creating the enclave on first
// invocation. Subsequent calls return the cached handle or the cached
// creation error; a failed creation is never retried within the same
// process.
func (m *HandleManager) Enclave() (interfaces.EnclaveHandle, error) {
	m.once.Do(m.initialize)
	return m.handle, m.err
}

func (m *HandleManager) initialize() {
	path, err := m.locateImage()
	if err != nil {
		m.err = err
		return
	}

	m.log.Info("Creating enclave", "image", path, "debug", enclaveDebug)
	handle, status := m.loader.Create(path, enclaveDebug)
	if !status.Ok() {
		m.log.Error("Enclave creation failed", "status", status.String())
		m.err = &interfaces.CreationError{Status: status}
		return
	}

	m.handle = handle
}

// locateImage searches the operator-configured directory followed by the
// standard library paths and returns the first existing candidate.
func (m *HandleManager) locateImage() (string, error) {
	overrideDir := os.Getenv(EnclaveDirEnv)
	if overrideDir == "" {
		overrideDir = "."
	}

	dirs := append([]string{overrideDir}, searchPaths...)
	for _, dir := range dirs {
		candidate := filepath.Join(dir, EnclaveFileName)
		m.log.Debug("Looking for the enclave image", "candidate", candidate)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	m.log.Warn("Cannot find the enclave image; point the override variable at the directory containing it",
		"image", EnclaveFileName, "override", EnclaveDirEnv)
	return "", interfaces.ErrEnclaveNotFound
}
