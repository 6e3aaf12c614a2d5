package pdist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const (
	CapabilityBottleneck  = "bottleneck_distance"
	CapabilityWasserstein = "wasserstein"

	stubBackend = "stub"
)

// ErrNoBackend is reported for a capability with no backend configured.
var ErrNoBackend = errors.New("no backend configured")

// Probe is the outcome of feature detection for one backend: either a
// usable Func, or the reason the backend cannot serve.
type Probe[F any] struct {
	Backend string
	Func    F
	Err     error
}

func (p Probe[F]) Available() bool {
	return p.Err == nil
}

// probeBackend runs b's probe and binds it with bind. A panicking backend
// is reported as unavailable.
func probeBackend[B Backend, F any](b B, bind func(B) F) (probe Probe[F]) {
	if any(b) == nil {
		return Probe[F]{Backend: "<nil>", Err: ErrNoBackend}
	}
	defer func() {
		if r := recover(); r != nil {
			probe = Probe[F]{
				Backend: probe.Backend,
				Err:     fmt.Errorf("%w: %v", ErrBackendPanic, r),
			}
		}
	}()

	probe.Backend = b.Name()
	if err := b.Probe(); err != nil {
		probe.Err = err
		return probe
	}
	probe.Func = bind(b)
	return probe
}

// funcBackend is implemented by the built-in backends, whose functions
// are registered by name.
type funcBackend interface {
	bottleneckFunc() BottleneckFunc
}

func probeBottleneck(b BottleneckBackend) Probe[BottleneckFunc] {
	return probeBackend(b, func(b BottleneckBackend) BottleneckFunc {
		if fb, ok := b.(funcBackend); ok {
			return fb.bottleneckFunc()
		}
		return b.Bottleneck
	})
}

func probeWasserstein(b WassersteinBackend) Probe[WassersteinFunc] {
	return probeBackend(b, func(b WassersteinBackend) WassersteinFunc {
		return func(x, y Diagram, p, delta float64) (float64, bool) {
			p, delta = normalizeParams(p, delta)
			return b.Wasserstein(x, y, p, delta), true
		}
	})
}

// Source describes which backend a capability is bound to.
type Source struct {
	Capability string
	Backend    string
	// Degraded is set when the preferred backend was unavailable.
	Degraded bool
	// Reason is the preferred backend's probe error when Degraded.
	Reason error
}

type binding[F any] struct {
	Source
	fn F
}

// selectBottleneck prefers the preferred probe and otherwise falls back.
// The fallback must be available.
func selectBottleneck(preferred, fallback Probe[BottleneckFunc]) (binding[BottleneckFunc], error) {
	if preferred.Available() {
		return binding[BottleneckFunc]{
			Source: Source{Capability: CapabilityBottleneck, Backend: preferred.Backend},
			fn:     preferred.Func,
		}, nil
	}
	if !fallback.Available() {
		return binding[BottleneckFunc]{}, fmt.Errorf(
			"bottleneck fallback %s: %w", fallback.Backend, fallback.Err,
		)
	}
	return binding[BottleneckFunc]{
		Source: Source{
			Capability: CapabilityBottleneck,
			Backend:    fallback.Backend,
			Degraded:   true,
			Reason:     preferred.Err,
		},
		fn: fallback.Func,
	}, nil
}

// selectWasserstein binds the probed backend, or StubWasserstein.
func selectWasserstein(preferred Probe[WassersteinFunc]) binding[WassersteinFunc] {
	if preferred.Available() {
		return binding[WassersteinFunc]{
			Source: Source{Capability: CapabilityWasserstein, Backend: preferred.Backend},
			fn:     preferred.Func,
		}
	}
	return binding[WassersteinFunc]{
		Source: Source{
			Capability: CapabilityWasserstein,
			Backend:    stubBackend,
			Degraded:   true,
			Reason:     preferred.Err,
		},
		fn: StubWasserstein,
	}
}

// Resolver chooses a backend for each capability.
// All public fields must be set before calling Resolve.
type Resolver struct {
	// Logger receives one notice per degraded capability.
	// The zero value discards them.
	Logger zerolog.Logger

	// Bottleneck is the preferred bottleneck backend.
	Bottleneck BottleneckBackend

	// BottleneckFallback is bound when Bottleneck is unavailable. It must
	// itself be available.
	BottleneckFallback BottleneckBackend

	// Wasserstein is the preferred Wasserstein backend. When it is
	// unavailable the capability is bound to StubWasserstein.
	Wasserstein WassersteinBackend
}

// DefaultLogger writes human readable notices to standard output.
func DefaultLogger() zerolog.Logger {
	return consoleLogger(os.Stdout)
}

func consoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// NewResolver returns a resolver preferring the accelerated backend, with
// the reference bottleneck as fallback and notices on standard output.
func NewResolver() *Resolver {
	accel := Accelerated()
	return &Resolver{
		Logger:             DefaultLogger(),
		Bottleneck:         accel,
		BottleneckFallback: Reference(),
		Wasserstein:        accel,
	}
}

// Validate checks the parts of the configuration that cannot degrade.
// Missing preferred backends are allowed and resolve as unavailable.
func (r *Resolver) Validate() error {
	if r.BottleneckFallback == nil {
		return fmt.Errorf("BottleneckFallback must be set")
	}
	return nil
}

// Resolve probes each capability independently and returns the bound
// table. Unavailable preferred backends never produce an error; the only
// error is a misconfigured or unavailable bottleneck fallback.
func (r *Resolver) Resolve() (*Capabilities, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	preferred := probeBottleneck(r.Bottleneck)
	var fallback Probe[BottleneckFunc]
	if !preferred.Available() {
		fallback = probeBottleneck(r.BottleneckFallback)
	}
	bn, err := selectBottleneck(preferred, fallback)
	if err != nil {
		return nil, err
	}
	r.notice(bn.Source)

	ws := selectWasserstein(probeWasserstein(r.Wasserstein))
	r.notice(ws.Source)

	return &Capabilities{bottleneck: bn, wasserstein: ws}, nil
}

func (r *Resolver) notice(s Source) {
	if !s.Degraded {
		r.Logger.Debug().
			Str("capability", s.Capability).
			Str("backend", s.Backend).
			Msg("capability resolved")
		return
	}

	var msg string
	switch s.Capability {
	case CapabilityBottleneck:
		msg = "using " + s.Backend + " bottleneck distance"
	default:
		msg = s.Capability + " distance not available"
	}
	r.Logger.Warn().
		Str("capability", s.Capability).
		Str("backend", s.Backend).
		Err(s.Reason).
		Msg(msg)
}

// Capabilities is an immutable table of resolved distance functions.
// Both functions are always bound; callers only need to check the ok
// result of Wasserstein.
type Capabilities struct {
	bottleneck  binding[BottleneckFunc]
	wasserstein binding[WassersteinFunc]
}

// Bottleneck returns the bottleneck distance between a and b.
func (c *Capabilities) Bottleneck(a, b Diagram) float64 {
	return c.bottleneck.fn(a, b)
}

// Wasserstein returns the order-p Wasserstein distance between a and b.
// Zero p or delta select DefaultOrder and DefaultDelta. ok is false when
// the capability is degraded to the stub.
func (c *Capabilities) Wasserstein(a, b Diagram, p, delta float64) (float64, bool) {
	return c.wasserstein.fn(a, b, p, delta)
}

func (c *Capabilities) BottleneckFunc() BottleneckFunc {
	return c.bottleneck.fn
}

func (c *Capabilities) WassersteinFunc() WassersteinFunc {
	return c.wasserstein.fn
}

// Sources reports the binding of each capability.
func (c *Capabilities) Sources() []Source {
	return []Source{c.bottleneck.Source, c.wasserstein.Source}
}

var (
	defaultOnce sync.Once
	defaultCaps *Capabilities
)

// Default returns the process-wide table, resolving it with NewResolver on
// first use. It panics if the reference fallback cannot be bound.
func Default() *Capabilities {
	defaultOnce.Do(func() {
		caps, err := NewResolver().Resolve()
		if err != nil {
			panic(fmt.Sprintf("pdist: resolve default capabilities: %v", err))
		}
		defaultCaps = caps
	})
	return defaultCaps
}

// Bottleneck computes the bottleneck distance with the Default table.
func Bottleneck(a, b Diagram) float64 {
	return Default().Bottleneck(a, b)
}

// Wasserstein computes the Wasserstein distance with the Default table.
func Wasserstein(a, b Diagram, p, delta float64) (float64, bool) {
	return Default().Wasserstein(a, b, p, delta)
}
