package pdist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_hungarian(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	require.Equal(t, 5.0, hungarian(cost))
	require.Equal(t, 0.0, hungarian(nil))

	inf := math.Inf(1)
	require.Equal(t, 3.0, hungarian([][]float64{
		{inf, 1},
		{2, inf},
	}))
	require.True(t, math.IsInf(hungarian([][]float64{
		{inf, inf},
		{1, 1},
	}), 1))
}

func Test_wasserstein(t *testing.T) {
	a := MakeDiagram([2]float64{0, 2}, [2]float64{0, 4})
	b := MakeDiagram([2]float64{0, 3}, [2]float64{0, 5})

	require.InDelta(t, 2.0, wasserstein(a, b, 1, pairwiseReference), 1e-12)
	require.InDelta(t, math.Sqrt2, wasserstein(a, b, 2, pairwiseReference), 1e-12)

	// A lone point travels to the diagonal.
	single := MakeDiagram([2]float64{0, 1})
	require.InDelta(t, 0.5, wasserstein(single, nil, 1, pairwiseReference), 1e-12)
	require.Equal(t, 0.0, wasserstein(single, single, 1, pairwiseReference))

	inf := math.Inf(1)
	ess := MakeDiagram([2]float64{0, inf}, [2]float64{1, inf})
	ess2 := MakeDiagram([2]float64{3, inf}, [2]float64{1, inf})
	// Sorted births 0,1 against 1,3.
	require.InDelta(t, 3.0, wasserstein(ess, ess2, 1, pairwiseReference), 1e-12)
	require.True(t, math.IsInf(wasserstein(ess, ess2[:1], 1, pairwiseReference), 1))
}

func Test_normalizeParams(t *testing.T) {
	p, delta := normalizeParams(0, 0)
	require.Equal(t, DefaultOrder, p)
	require.Equal(t, DefaultDelta, delta)

	p, delta = normalizeParams(0.5, -1)
	require.Equal(t, DefaultOrder, p)
	require.Equal(t, DefaultDelta, delta)

	p, delta = normalizeParams(2, 0.1)
	require.Equal(t, 2.0, p)
	require.Equal(t, 0.1, delta)

	p, _ = normalizeParams(math.Inf(1), 0)
	require.True(t, math.IsInf(p, 1))
}

func TestStubWasserstein(t *testing.T) {
	d, ok := StubWasserstein(nil, MakeDiagram([2]float64{0, 1}), 3, 0.5)
	require.False(t, ok)
	require.Zero(t, d)
}
