// Package guard flips the test-mode flag for any package importing it, so
// binaries under test never start real runtimes.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CLEARANCE_TEST_MODE") == "" {
			_ = os.Setenv("CLEARANCE_TEST_MODE", "1")
		}
	})
}
