package pdist

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// sentinelBackend returns a fixed value so tests can tell which backend
// a capability was bound to.
type sentinelBackend struct {
	name       string
	value      float64
	probeErr   error
	panicProbe bool

	gotP, gotDelta float64
}

func (s *sentinelBackend) Name() string { return s.name }

func (s *sentinelBackend) Probe() error {
	if s.panicProbe {
		panic("probe exploded")
	}
	return s.probeErr
}

func (s *sentinelBackend) Bottleneck(Diagram, Diagram) float64 {
	return s.value
}

func (s *sentinelBackend) Wasserstein(_, _ Diagram, p, delta float64) float64 {
	s.gotP, s.gotDelta = p, delta
	return s.value
}

func testResolver(buf *bytes.Buffer) *Resolver {
	return &Resolver{
		Logger:             zerolog.New(buf),
		Bottleneck:         Unavailable("fast", nil),
		BottleneckFallback: Reference(),
		Wasserstein:        Unavailable("fast", nil),
	}
}

func TestResolve_PrefersBackends(t *testing.T) {
	var buf bytes.Buffer
	r := testResolver(&buf)
	r.Bottleneck = &sentinelBackend{name: "fast-bottleneck", value: 42}
	r.Wasserstein = &sentinelBackend{name: "fast-wasserstein", value: 7}

	caps, err := r.Resolve()
	require.NoError(t, err)

	unit := MakeDiagram([2]float64{0, 1})
	require.Equal(t, 42.0, caps.Bottleneck(unit, unit))
	d, ok := caps.Wasserstein(unit, unit, 0, 0)
	require.True(t, ok)
	require.Equal(t, 7.0, d)

	require.Equal(t, []Source{
		{Capability: CapabilityBottleneck, Backend: "fast-bottleneck"},
		{Capability: CapabilityWasserstein, Backend: "fast-wasserstein"},
	}, caps.Sources())

	// Resolved capabilities only log at debug level.
	require.NotContains(t, buf.String(), `"level":"warn"`)
}

func TestResolve_BottleneckFallback(t *testing.T) {
	var buf bytes.Buffer
	caps, err := testResolver(&buf).Resolve()
	require.NoError(t, err)

	require.Contains(t, buf.String(), "using reference bottleneck distance")
	src := caps.Sources()[0]
	require.True(t, src.Degraded)
	require.Equal(t, "reference", src.Backend)
	require.ErrorIs(t, src.Reason, ErrDisabled)

	unit := MakeDiagram([2]float64{0, 1})
	require.Equal(t, 0.0, caps.Bottleneck(unit, unit))

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10; i++ {
		a := randomDiagram(rng, rng.Intn(8), 1)
		b := randomDiagram(rng, rng.Intn(8), 1)
		require.Equal(t, caps.Bottleneck(a, b), caps.Bottleneck(b, a))
		require.Equal(t, 0.0, caps.Bottleneck(a, a))
	}
}

func TestResolve_WassersteinStub(t *testing.T) {
	var buf bytes.Buffer
	caps, err := testResolver(&buf).Resolve()
	require.NoError(t, err)

	require.Contains(t, buf.String(), "wasserstein distance not available")
	src := caps.Sources()[1]
	require.True(t, src.Degraded)
	require.Equal(t, stubBackend, src.Backend)

	a := MakeDiagram([2]float64{0, 1}, [2]float64{2, 5})
	b := MakeDiagram([2]float64{0, 3})
	require.NotPanics(t, func() {
		_, ok := caps.Wasserstein(a, b, 0, 0)
		require.False(t, ok)
	})
}

func TestResolve_Independent(t *testing.T) {
	var buf bytes.Buffer
	r := testResolver(&buf)
	r.Wasserstein = &sentinelBackend{name: "fast-wasserstein", value: 3}

	caps, err := r.Resolve()
	require.NoError(t, err)
	require.True(t, caps.Sources()[0].Degraded)
	require.False(t, caps.Sources()[1].Degraded)
	require.NotContains(t, buf.String(), "wasserstein distance not available")

	buf.Reset()
	r = testResolver(&buf)
	r.Bottleneck = &sentinelBackend{name: "fast-bottleneck", value: 1}

	caps, err = r.Resolve()
	require.NoError(t, err)
	require.False(t, caps.Sources()[0].Degraded)
	require.True(t, caps.Sources()[1].Degraded)
	require.NotContains(t, buf.String(), "bottleneck distance")
}

func TestResolve_ProbeFailures(t *testing.T) {
	var buf bytes.Buffer
	r := testResolver(&buf)
	r.Bottleneck = &sentinelBackend{name: "panicky", panicProbe: true}
	r.Wasserstein = nil

	caps, err := r.Resolve()
	require.NoError(t, err)
	require.ErrorIs(t, caps.Sources()[0].Reason, ErrBackendPanic)
	require.ErrorIs(t, caps.Sources()[1].Reason, ErrNoBackend)

	custom := errors.New("library missing")
	r = testResolver(&buf)
	r.Bottleneck = Unavailable("native", custom)
	caps, err = r.Resolve()
	require.NoError(t, err)
	require.ErrorIs(t, caps.Sources()[0].Reason, custom)
}

func TestResolve_Fallback(t *testing.T) {
	var buf bytes.Buffer
	r := testResolver(&buf)
	r.BottleneckFallback = nil
	_, err := r.Resolve()
	require.Error(t, err)

	r = testResolver(&buf)
	r.BottleneckFallback = Unavailable("broken", nil)
	_, err = r.Resolve()
	require.ErrorIs(t, err, ErrDisabled)

	// A broken fallback is not probed while the preferred backend serves.
	r = testResolver(&buf)
	r.Bottleneck = Reference()
	r.BottleneckFallback = Unavailable("broken", nil)
	_, err = r.Resolve()
	require.NoError(t, err)
}

func TestResolve_WassersteinDefaults(t *testing.T) {
	var buf bytes.Buffer
	backend := &sentinelBackend{name: "fast-wasserstein"}
	r := testResolver(&buf)
	r.Wasserstein = backend

	caps, err := r.Resolve()
	require.NoError(t, err)

	caps.Wasserstein(nil, nil, 0, 0)
	require.Equal(t, DefaultOrder, backend.gotP)
	require.Equal(t, DefaultDelta, backend.gotDelta)

	caps.Wasserstein(nil, nil, 3, 0.2)
	require.Equal(t, 3.0, backend.gotP)
	require.Equal(t, 0.2, backend.gotDelta)
}

func Test_selectBottleneck(t *testing.T) {
	preferred := Probe[BottleneckFunc]{Backend: "a", Func: referenceBottleneck}
	fallback := Probe[BottleneckFunc]{Backend: "b", Func: referenceBottleneck}

	b, err := selectBottleneck(preferred, fallback)
	require.NoError(t, err)
	require.Equal(t, "a", b.Backend)
	require.False(t, b.Degraded)

	preferred.Err = ErrDisabled
	b, err = selectBottleneck(preferred, fallback)
	require.NoError(t, err)
	require.Equal(t, "b", b.Backend)
	require.True(t, b.Degraded)

	fallback.Err = ErrCompiledOut
	_, err = selectBottleneck(preferred, fallback)
	require.ErrorIs(t, err, ErrCompiledOut)
}

func Test_selectWasserstein(t *testing.T) {
	w := selectWasserstein(Probe[WassersteinFunc]{Backend: "x", Err: ErrNoAcceleration})
	require.Equal(t, stubBackend, w.Backend)
	require.ErrorIs(t, w.Reason, ErrNoAcceleration)
	require.NotNil(t, w.fn)
}

func TestNewResolver(t *testing.T) {
	r := NewResolver()
	r.Logger = zerolog.Nop()

	caps, err := r.Resolve()
	require.NoError(t, err)
	require.NotNil(t, caps.BottleneckFunc())
	require.NotNil(t, caps.WassersteinFunc())

	unit := MakeDiagram([2]float64{0, 1})
	require.Equal(t, 0.0, caps.Bottleneck(unit, unit))

	// Whatever the CPU, the two capabilities agree on availability.
	_, ok := caps.Wasserstein(unit, unit, 0, 0)
	require.Equal(t, !caps.Sources()[1].Degraded, ok)
	require.Equal(t, caps.Sources()[0].Degraded, caps.Sources()[1].Degraded)
}

func TestDefault(t *testing.T) {
	require.Same(t, Default(), Default())
	require.Equal(t, 0.0, Bottleneck(MakeDiagram([2]float64{0, 1}), MakeDiagram([2]float64{0, 1})))
	_, _ = Wasserstein(nil, nil, 0, 0)
}

func TestDefaultLogger_Stdout(t *testing.T) {
	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = wr
	t.Cleanup(func() { os.Stdout = stdout })

	r := testResolver(&bytes.Buffer{})
	r.Logger = DefaultLogger()
	_, err = r.Resolve()
	os.Stdout = stdout
	require.NoError(t, err)
	require.NoError(t, wr.Close())

	out, err := io.ReadAll(rd)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "WRN using reference bottleneck distance")
	require.Contains(t, lines[1], "WRN wasserstein distance not available")
	for _, line := range lines {
		// Console lines, not JSON.
		require.False(t, strings.HasPrefix(line, "{"), line)
	}
}

func Test_consoleLogger(t *testing.T) {
	var buf bytes.Buffer
	r := testResolver(&bytes.Buffer{})
	r.Logger = consoleLogger(&buf)
	r.Bottleneck = &sentinelBackend{name: "fast", value: 1}
	_, err := r.Resolve()
	require.NoError(t, err)

	// The resolved capability logs at debug, below the default level.
	require.NotContains(t, buf.String(), "capability resolved")
	require.Contains(t, buf.String(), "wasserstein distance not available")
	require.Contains(t, buf.String(), "backend=stub")
}
