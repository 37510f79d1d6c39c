package runtime

import (
	"os"
	"strings"
	"sync"
)

var (
	strictIdentityModeOnce  sync.Once
	strictIdentityModeValue bool
)

// ResetStrictIdentityModeCache resets the cached strict identity mode value.
// This should only be used in tests.
func ResetStrictIdentityModeCache() {
	strictIdentityModeOnce = sync.Once{}
	strictIdentityModeValue = false
}

// StrictIdentityMode returns true when the service should fail closed on
// identity/security boundaries (e.g. only trust caller-identity headers that
// are protected by verified mTLS). Production always runs strict; other
// environments can opt in via AIVCS_STRICT_IDENTITY.
func StrictIdentityMode() bool {
	strictIdentityModeOnce.Do(func() {
		env := Env()
		explicit := strings.TrimSpace(os.Getenv("AIVCS_STRICT_IDENTITY"))
		strictIdentityModeValue = env == Production || ParseBoolValue(explicit)
	})
	return strictIdentityModeValue
}
