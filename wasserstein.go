package pdist

import "math"

// wasserstein computes the order-p Wasserstein distance with an L∞ ground
// metric by solving the assignment problem exactly. An exact answer lies
// within any relative error, so delta only bounds what callers may assume.
func wasserstein(a, b Diagram, p float64, pairwise pairwiseFunc) float64 {
	gaps, ok := essentialGaps(a.Essential(), b.Essential())
	if !ok {
		return math.Inf(1)
	}
	var total float64
	for _, g := range gaps {
		total += math.Pow(g, p)
	}
	total += finiteAssignment(a.Finite(), b.Finite(), p, pairwise)
	if total == 0 {
		return 0
	}
	return math.Pow(total, 1/p)
}

// finiteAssignment builds the (n+m)×(n+m) cost matrix of the augmented
// problem and returns the optimal total cost. Rows are the points of a and
// then the projections of b's points; columns are the points of b and then
// the projections of a's points.
func finiteAssignment(a, b Diagram, p float64, pairwise pairwiseFunc) float64 {
	n, m := len(a), len(b)
	size := n + m
	if size == 0 {
		return 0
	}

	var (
		dist = pairwise(a, b)
		ra   = diagonalDistances(a)
		rb   = diagonalDistances(b)
		inf  = math.Inf(1)
	)

	cost := make([][]float64, size)
	for i := 0; i < n; i++ {
		row := make([]float64, size)
		for j := 0; j < m; j++ {
			row[j] = math.Pow(dist[i][j], p)
		}
		for k := 0; k < n; k++ {
			row[m+k] = inf
		}
		row[m+i] = math.Pow(ra[i], p)
		cost[i] = row
	}
	for k := 0; k < m; k++ {
		row := make([]float64, size)
		for j := 0; j < m; j++ {
			row[j] = inf
		}
		row[k] = math.Pow(rb[k], p)
		// Projection to projection is free.
		cost[n+k] = row
	}

	return hungarian(cost)
}

// hungarian returns the minimum total cost of a perfect assignment on a
// square matrix, using row and column potentials. Entries may be +Inf as
// long as a finite perfect assignment exists. O(n³).
func hungarian(cost [][]float64) float64 {
	n := len(cost)
	if n == 0 {
		return 0
	}

	// 1-indexed; column 0 is the virtual root of each alternating tree.
	var (
		u    = make([]float64, n+1)
		v    = make([]float64, n+1)
		p    = make([]int, n+1)
		way  = make([]int, n+1)
		minv = make([]float64, n+1)
		used = make([]bool, n+1)
	)
	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			var (
				i0    = p[j0]
				delta = math.Inf(1)
				j1    = 0
			)
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 == 0 {
				// No finite assignment exists.
				return math.Inf(1)
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	var total float64
	for j := 1; j <= n; j++ {
		total += cost[p[j]-1][j-1]
	}
	return total
}
