package pdist

// matcher returns the size of a maximum matching of the bipartite graph
// with left adjacency lists adj and nRight right vertices.
type matcher func(adj [][]int, nRight int) int

// hopcroftKarp grows the matching along shortest augmenting paths, one
// BFS layering per phase. O(E√V).
func hopcroftKarp(adj [][]int, nRight int) int {
	const unmatched = -1
	var (
		matchL = make([]int, len(adj))
		matchR = make([]int, nRight)
		dist   = make([]int, len(adj))
		queue  = make([]int, 0, len(adj))
	)
	for i := range matchL {
		matchL[i] = unmatched
	}
	for i := range matchR {
		matchR[i] = unmatched
	}

	// bfs layers the free left vertices and reports whether some free right
	// vertex is reachable.
	bfs := func() bool {
		queue = queue[:0]
		for u := range adj {
			if matchL[u] == unmatched {
				dist[u] = 0
				queue = append(queue, u)
			} else {
				dist[u] = -1
			}
		}
		found := false
		for i := 0; i < len(queue); i++ {
			u := queue[i]
			for _, v := range adj[u] {
				w := matchR[v]
				if w == unmatched {
					found = true
				} else if dist[w] < 0 {
					dist[w] = dist[u] + 1
					queue = append(queue, w)
				}
			}
		}
		return found
	}

	var dfs func(u int) bool
	dfs = func(u int) bool {
		for _, v := range adj[u] {
			w := matchR[v]
			if w == unmatched || (dist[w] == dist[u]+1 && dfs(w)) {
				matchL[u] = v
				matchR[v] = u
				return true
			}
		}
		// Dead end for this phase.
		dist[u] = -1
		return false
	}

	size := 0
	for bfs() {
		for u := range adj {
			if matchL[u] == unmatched && dfs(u) {
				size++
			}
		}
	}
	return size
}

// kuhn augments from each left vertex in turn. O(VE), no layering.
func kuhn(adj [][]int, nRight int) int {
	var (
		matchR = make([]int, nRight)
		seen   = make([]int, nRight)
		stamp  = 0
	)
	for i := range matchR {
		matchR[i] = -1
	}

	var try func(u int) bool
	try = func(u int) bool {
		for _, v := range adj[u] {
			if seen[v] == stamp {
				continue
			}
			seen[v] = stamp
			if matchR[v] < 0 || try(matchR[v]) {
				matchR[v] = u
				return true
			}
		}
		return false
	}

	size := 0
	for u := range adj {
		stamp++
		if try(u) {
			size++
		}
	}
	return size
}
