package app

import (
	"os"
	"sync"
)

// TestModeEnv is set by the test guard so binaries linked into tests exit
// before dialing Postgres or Redis.
const TestModeEnv = "BACKOFFICE_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return inTestMode()
}
