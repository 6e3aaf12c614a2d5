package pdist

import (
	"math"
	"reflect"
	"slices"
)

// BottleneckFunc computes the bottleneck distance between two diagrams.
// The result is non-negative and may be +Inf when the diagrams have a
// different number of essential points.
type BottleneckFunc func(a, b Diagram) float64

// WassersteinFunc computes the order-p Wasserstein distance between two
// diagrams, within relative error delta. ok is false when no computation
// was performed and dist carries no meaning.
type WassersteinFunc func(a, b Diagram, p, delta float64) (dist float64, ok bool)

const (
	// DefaultOrder is the Wasserstein order used when p is zero.
	DefaultOrder = 1.0
	// DefaultDelta is the relative error used when delta is zero.
	DefaultDelta = 0.01
)

// normalizeParams applies the defaults for zero or out of range
// Wasserstein parameters.
func normalizeParams(p, delta float64) (float64, float64) {
	if math.IsNaN(p) || p < 1 {
		p = DefaultOrder
	}
	if math.IsNaN(delta) || delta <= 0 {
		delta = DefaultDelta
	}
	return p, delta
}

// StubWasserstein is bound when no Wasserstein backend is available.
// It never reads its arguments and always reports ok == false.
func StubWasserstein(_, _ Diagram, _, _ float64) (float64, bool) {
	return 0, false
}

var bottleneckFuncs = map[string]BottleneckFunc{}

func bottleneckFuncToName(fn BottleneckFunc) (string, bool) {
	fnptr := reflect.ValueOf(fn).Pointer()
	for name, f := range bottleneckFuncs {
		if reflect.ValueOf(f).Pointer() == fnptr {
			return name, true
		}
	}
	return "", false
}

// RegisterBottleneckFunc registers a bottleneck function with a name.
// Graph.DistanceName reports the registered name of the graph's distance.
func RegisterBottleneckFunc(name string, fn BottleneckFunc) {
	bottleneckFuncs[name] = fn
}

// pairwiseFunc returns the len(a)×len(b) matrix of L∞ distances between
// finite points.
type pairwiseFunc func(a, b Diagram) [][]float64

func pairwiseReference(a, b Diagram) [][]float64 {
	out := make([][]float64, len(a))
	for i, p := range a {
		row := make([]float64, len(b))
		for j, q := range b {
			row[j] = math.Max(math.Abs(p.Birth-q.Birth), math.Abs(p.Death-q.Death))
		}
		out[i] = row
	}
	return out
}

// essentialGaps matches essential points by sorted birth and returns the
// birth differences. ok is false when the counts differ and no matching
// exists.
func essentialGaps(a, b Diagram) (gaps []float64, ok bool) {
	if len(a) != len(b) {
		return nil, false
	}
	ab := make([]float64, len(a))
	bb := make([]float64, len(b))
	for i := range a {
		ab[i] = a[i].Birth
		bb[i] = b[i].Birth
	}
	slices.Sort(ab)
	slices.Sort(bb)

	gaps = make([]float64, len(a))
	for i := range ab {
		gaps[i] = math.Abs(ab[i] - bb[i])
	}
	return gaps, true
}

func diagonalDistances(d Diagram) []float64 {
	out := make([]float64, len(d))
	for i, p := range d {
		out[i] = p.diagonalDistance()
	}
	return out
}
