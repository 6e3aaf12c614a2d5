package pdist

import (
	"errors"
	"fmt"
)

var (
	// ErrCompiledOut is reported by backends excluded by build tags.
	ErrCompiledOut = errors.New("backend compiled out")
	// ErrNoAcceleration is reported when the CPU lacks the features an
	// accelerated backend needs.
	ErrNoAcceleration = errors.New("no hardware acceleration")
	// ErrBackendPanic is reported when a backend panics while being probed.
	ErrBackendPanic = errors.New("backend panicked")
	// ErrDisabled is reported by backends returned from Unavailable.
	ErrDisabled = errors.New("backend disabled")
)

// Backend is a source of distance functions that may or may not be usable
// in the running process.
type Backend interface {
	// Name identifies the backend in notices and Sources.
	Name() string
	// Probe returns nil when the backend can serve calls.
	Probe() error
}

// BottleneckBackend provides the bottleneck distance.
type BottleneckBackend interface {
	Backend
	Bottleneck(a, b Diagram) float64
}

// WassersteinBackend provides the Wasserstein distance. p and delta have
// already been normalized when the resolved table calls it.
type WassersteinBackend interface {
	Backend
	Wasserstein(a, b Diagram, p, delta float64) float64
}

// DistanceBackend provides both distances.
type DistanceBackend interface {
	BottleneckBackend
	WassersteinBackend
}

type referenceBackend struct{}

// Reference returns the pure Go bottleneck backend. It is always available
// and computes the same exact distance as the accelerated backend, without
// SIMD kernels and with a simpler matching routine. Results of the two may
// differ in the last bits for large inputs.
func Reference() BottleneckBackend {
	return referenceBackend{}
}

func (referenceBackend) Name() string { return "reference" }

func (referenceBackend) Probe() error { return nil }

func (referenceBackend) Bottleneck(a, b Diagram) float64 {
	return referenceBottleneck(a, b)
}

func (referenceBackend) bottleneckFunc() BottleneckFunc {
	return referenceBottleneck
}

func referenceBottleneck(a, b Diagram) float64 {
	return bottleneck(a, b, pairwiseReference, kuhn)
}

func init() {
	RegisterBottleneckFunc("reference", referenceBottleneck)
}

type unavailableBackend struct {
	name   string
	reason error
}

// Unavailable returns a backend that always fails its probe with reason.
// A nil reason is reported as ErrDisabled. It satisfies both backend
// interfaces, so it can stand in for either preferred backend.
func Unavailable(name string, reason error) DistanceBackend {
	if reason == nil {
		reason = ErrDisabled
	}
	return unavailableBackend{name: name, reason: reason}
}

func (u unavailableBackend) Name() string { return u.name }

func (u unavailableBackend) Probe() error {
	return fmt.Errorf("%s: %w", u.name, u.reason)
}

func (u unavailableBackend) Bottleneck(Diagram, Diagram) float64 {
	panic(u.Probe())
}

func (u unavailableBackend) Wasserstein(Diagram, Diagram, float64, float64) float64 {
	panic(u.Probe())
}
