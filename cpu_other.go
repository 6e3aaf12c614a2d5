//go:build !amd64 && !purego

package pdist

import (
	"fmt"
	"runtime"
)

// vek only ships assembly for amd64.
func cpuSupportsVek() error {
	return fmt.Errorf("GOARCH %s: %w", runtime.GOARCH, ErrNoAcceleration)
}
