package interfaces

import "fmt"

// Status is a platform status code as reported by the SGX runtime. The zero
// value is success. Values mirror the platform's sgx_status_t encoding so
// they can be passed across the foreign-call boundary verbatim.
type Status uint32

const (
	StatusSuccess Status = 0x0000

	StatusUnexpected       Status = 0x0001
	StatusInvalidParameter Status = 0x0002
	StatusOutOfMemory      Status = 0x0003
	StatusEnclaveLost      Status = 0x0004

	StatusInvalidEnclave   Status = 0x2001
	StatusInvalidEnclaveID Status = 0x2002
	StatusOutOfTCS         Status = 0x2007
	StatusEnclaveCrashed   Status = 0x2008
	StatusNoDevice         Status = 0x2006

	StatusServiceUnavailable    Status = 0x4001
	StatusServiceTimeout        Status = 0x4002
	StatusBusy                  Status = 0x400a
	StatusUnrecognizedPlatform  Status = 0x4005
	StatusPlatformNotProvisioned Status = 0x4011
	StatusNetworkFailure        Status = 0x4013
)

var statusDescriptions = map[Status]string{
	StatusSuccess:                "success",
	StatusUnexpected:             "unexpected error",
	StatusInvalidParameter:       "invalid parameter",
	StatusOutOfMemory:            "out of memory",
	StatusEnclaveLost:            "enclave lost after power transition",
	StatusInvalidEnclave:         "invalid enclave image",
	StatusInvalidEnclaveID:       "invalid enclave identifier",
	StatusOutOfTCS:               "out of TCS slots",
	StatusEnclaveCrashed:         "enclave crashed",
	StatusNoDevice:               "platform is not SGX-capable",
	StatusServiceUnavailable:     "architectural enclave service unavailable",
	StatusServiceTimeout:         "architectural enclave service timed out",
	StatusBusy:                   "service is busy",
	StatusUnrecognizedPlatform:   "platform not recognized by attestation infrastructure",
	StatusPlatformNotProvisioned: "platform lacks EPID provisioning",
	StatusNetworkFailure:         "network failure during service call",
}

// Ok reports whether the status is the success code.
func (s Status) Ok() bool { return s == StatusSuccess }

// String returns a human-readable description of the status, falling back to
// the hex code for values this host does not know by name.
func (s Status) String() string {
	if desc, ok := statusDescriptions[s]; ok {
		return desc
	}
	return fmt.Sprintf("platform status 0x%04x", uint32(s))
}
