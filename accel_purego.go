//go:build purego

package pdist

import "fmt"

type vekBackend struct{}

// Accelerated returns a backend whose probe always fails: the SIMD
// kernels are excluded from purego builds.
func Accelerated() DistanceBackend {
	return vekBackend{}
}

func (vekBackend) Name() string { return "vek" }

func (vekBackend) Probe() error {
	return fmt.Errorf("vek: built with purego: %w", ErrCompiledOut)
}

func (b vekBackend) Bottleneck(Diagram, Diagram) float64 {
	panic(b.Probe())
}

func (b vekBackend) Wasserstein(Diagram, Diagram, float64, float64) float64 {
	panic(b.Probe())
}
