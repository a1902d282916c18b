// Package testing is blank-imported by test files that need the process in
// test mode before any package initialisation reads the environment.
package testing

import (
	"os"
	stdtesting "testing"

	"github.com/agrocrm/backoffice/internal/testing/guard"
)

// TestMain enables test mode and runs the suite.
func TestMain(m *stdtesting.M) {
	guard.Enable()
	os.Exit(m.Run())
}
