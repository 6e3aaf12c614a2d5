//go:build !purego

package pdist

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

type vekBackend struct{}

// Accelerated returns the SIMD backend built on vek. It serves both
// distances with Hopcroft-Karp matching for the bottleneck distance and an
// exact assignment solver for the Wasserstein distance. Its probe fails on
// CPUs without AVX2 and FMA.
func Accelerated() DistanceBackend {
	return vekBackend{}
}

func (vekBackend) Name() string { return "vek" }

func (vekBackend) Probe() error {
	if err := cpuSupportsVek(); err != nil {
		return fmt.Errorf("vek: %w", err)
	}
	if !vek.Info().Acceleration {
		return fmt.Errorf("vek: acceleration disabled: %w", ErrNoAcceleration)
	}
	return nil
}

func (vekBackend) Bottleneck(a, b Diagram) float64 {
	return vekBottleneck(a, b)
}

func (vekBackend) Wasserstein(a, b Diagram, p, _ float64) float64 {
	if math.IsInf(p, 1) {
		return vekBottleneck(a, b)
	}
	return wasserstein(a, b, p, pairwiseVek)
}

func (vekBackend) bottleneckFunc() BottleneckFunc {
	return vekBottleneck
}

func vekBottleneck(a, b Diagram) float64 {
	return bottleneck(a, b, pairwiseVek, hopcroftKarp)
}

// pairwiseVek computes each row of the L∞ matrix as
// max(|births - birth|, |deaths - death|) over b's columns.
func pairwiseVek(a, b Diagram) [][]float64 {
	out := make([][]float64, len(a))
	if len(b) == 0 {
		for i := range out {
			out[i] = []float64{}
		}
		return out
	}

	births, deaths := b.columns()
	for i, p := range a {
		row := vek.SubNumber(births, p.Birth)
		vek.Abs_Inplace(row)
		dd := vek.SubNumber(deaths, p.Death)
		vek.Abs_Inplace(dd)
		vek.Maximum_Inplace(row, dd)
		out[i] = row
	}
	return out
}

func init() {
	RegisterBottleneckFunc("vek", vekBottleneck)
}
