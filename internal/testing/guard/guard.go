// Package guard switches the process into test mode when imported. Server
// and worker entrypoints then return before dialing external services, and
// configuration defaults to the in-memory store.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

// Enable sets the test-mode environment. It runs on import and is safe to
// call again.
func Enable() {
	once.Do(func() {
		if os.Getenv("BACKOFFICE_TEST_MODE") == "" {
			_ = os.Setenv("BACKOFFICE_TEST_MODE", "1")
		}
		if os.Getenv("APP_STORE") == "" {
			_ = os.Setenv("APP_STORE", "memory")
		}
	})
}

func init() {
	Enable()
}
