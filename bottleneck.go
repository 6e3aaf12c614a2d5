package pdist

import (
	"math"
	"slices"

	"golang.org/x/exp/maps"
)

// bottleneck computes the exact bottleneck distance. pairwise and match
// are the kernels of the calling backend.
func bottleneck(a, b Diagram, pairwise pairwiseFunc, match matcher) float64 {
	gaps, ok := essentialGaps(a.Essential(), b.Essential())
	if !ok {
		return math.Inf(1)
	}
	var dist float64
	for _, g := range gaps {
		dist = math.Max(dist, g)
	}
	return math.Max(dist, finiteBottleneck(a.Finite(), b.Finite(), pairwise, match))
}

// finiteBottleneck searches the sorted candidate distances for the
// smallest threshold admitting a perfect matching.
//
// Left vertices are the points of a followed by the diagonal projections
// of b; right vertices are the points of b followed by the diagonal
// projections of a. A point may only be matched to its own projection,
// and any two projections match at zero cost.
func finiteBottleneck(a, b Diagram, pairwise pairwiseFunc, match matcher) float64 {
	n, m := len(a), len(b)
	if n+m == 0 {
		return 0
	}

	var (
		dist = pairwise(a, b)
		ra   = diagonalDistances(a)
		rb   = diagonalDistances(b)
	)

	seen := map[float64]struct{}{0: {}}
	for _, row := range dist {
		for _, d := range row {
			seen[d] = struct{}{}
		}
	}
	for _, d := range ra {
		seen[d] = struct{}{}
	}
	for _, d := range rb {
		seen[d] = struct{}{}
	}
	candidates := maps.Keys(seen)
	slices.Sort(candidates)

	size := n + m
	adj := make([][]int, size)
	feasible := func(r float64) bool {
		for i := 0; i < n; i++ {
			row := adj[i][:0]
			for j, d := range dist[i] {
				if d <= r {
					row = append(row, j)
				}
			}
			if ra[i] <= r {
				row = append(row, m+i)
			}
			adj[i] = row
		}
		for j := 0; j < m; j++ {
			row := adj[n+j][:0]
			if rb[j] <= r {
				row = append(row, j)
			}
			for i := 0; i < n; i++ {
				row = append(row, m+i)
			}
			adj[n+j] = row
		}
		return match(adj, size) == size
	}

	// The largest candidate admits every point-to-projection edge, so the
	// search always terminates on a feasible threshold.
	lo, hi := 0, len(candidates)-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if feasible(candidates[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return candidates[lo]
}
