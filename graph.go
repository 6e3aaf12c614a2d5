package pdist

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/coder/pdist/heap"
	"golang.org/x/exp/maps"
)

// Node is a keyed diagram stored in a Graph.
type Node[K cmp.Ordered] struct {
	Key   K
	Value Diagram
}

func MakeNode[K cmp.Ordered](key K, d Diagram) Node[K] {
	return Node[K]{Key: key, Value: d}
}

// layerNode is a node in a layer of the graph.
type layerNode[K cmp.Ordered] struct {
	Node[K]

	// neighbors is a map and not a slice to allow for efficient deletes.
	neighbors map[K]*layerNode[K]
}

// addNeighbor links newNode, evicting the farthest neighbor once more
// than m are held.
func (n *layerNode[K]) addNeighbor(newNode *layerNode[K], m int, dist BottleneckFunc) {
	if n == nil || newNode == nil {
		return
	}
	if n.neighbors == nil {
		n.neighbors = make(map[K]*layerNode[K], m)
	}

	n.neighbors[newNode.Key] = newNode
	if len(n.neighbors) <= m {
		return
	}

	var (
		worstDist = math.Inf(-1)
		worst     *layerNode[K]
	)
	for _, neighbor := range n.neighbors {
		if neighbor == nil {
			continue
		}
		// Bottleneck distances may be +Inf between diagrams with a
		// different number of essential classes.
		d := dist(neighbor.Value, n.Value)
		if d > worstDist || worst == nil {
			worstDist = d
			worst = neighbor
		}
	}

	if worst != nil {
		delete(n.neighbors, worst.Key)
		if worst.neighbors != nil {
			delete(worst.neighbors, n.Key)
		}
		worst.replenish(m, dist)
	}
}

type searchCandidate[K cmp.Ordered] struct {
	node *layerNode[K]
	dist float64
}

func (s searchCandidate[K]) Less(o searchCandidate[K]) bool {
	return s.dist < o.dist
}

// search returns up to k nodes of this layer closest to target, greedily
// expanding from n.
func (n *layerNode[K]) search(k, efSearch int, target Diagram, distance BottleneckFunc) []searchCandidate[K] {
	if n == nil || distance == nil {
		return nil
	}

	candidates := heap.Heap[searchCandidate[K]]{}
	candidates.Init(make([]searchCandidate[K], 0, efSearch))
	candidates.Push(searchCandidate[K]{node: n, dist: distance(n.Value, target)})

	var (
		result  = heap.Heap[searchCandidate[K]]{}
		visited = map[K]bool{n.Key: true}
	)
	result.Init(make([]searchCandidate[K], 0, k))
	result.Push(candidates.Min())

	for candidates.Len() > 0 {
		var (
			current  = candidates.Pop().node
			improved = false
		)
		if current == nil || current.neighbors == nil {
			continue
		}

		// Sorted for deterministic tests.
		neighborKeys := maps.Keys(current.neighbors)
		slices.Sort(neighborKeys)
		for _, neighborID := range neighborKeys {
			neighbor := current.neighbors[neighborID]
			if neighbor == nil || visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			dist := distance(neighbor.Value, target)
			improved = improved || (result.Len() > 0 && dist < result.Min().dist)
			if result.Len() < k {
				result.Push(searchCandidate[K]{node: neighbor, dist: dist})
			} else if dist < result.Max().dist {
				result.PopLast()
				result.Push(searchCandidate[K]{node: neighbor, dist: dist})
			}

			candidates.Push(searchCandidate[K]{node: neighbor, dist: dist})
			if candidates.Len() > efSearch {
				candidates.PopLast()
			}
		}

		if !improved && result.Len() >= k {
			break
		}
	}

	return result.Slice()
}

// replenish reconnects n to neighbors of its neighbors until it holds m.
func (n *layerNode[K]) replenish(m int, dist BottleneckFunc) {
	if len(n.neighbors) >= m {
		return
	}

	candidates := heap.Heap[searchCandidate[K]]{}
	candidates.Init(make([]searchCandidate[K], 0, m*2))

	visited := map[K]bool{n.Key: true}
	for k := range n.neighbors {
		visited[k] = true
	}
	for _, neighbor := range n.neighbors {
		if neighbor == nil {
			continue
		}
		for k, candidate := range neighbor.neighbors {
			if visited[k] || candidate == nil {
				continue
			}
			visited[k] = true
			candidates.Push(searchCandidate[K]{
				node: candidate,
				dist: dist(candidate.Value, n.Value),
			})
		}
	}

	for candidates.Len() > 0 && len(n.neighbors) < m {
		best := candidates.Pop()
		n.addNeighbor(best.node, m, dist)
	}
}

type layer[K cmp.Ordered] struct {
	// All nodes in a higher layer are also in the lower layers.
	nodes map[K]*layerNode[K]
}

// entry returns any node of the layer.
func (l *layer[K]) entry() *layerNode[K] {
	if l == nil {
		return nil
	}
	for _, node := range l.nodes {
		return node
	}
	return nil
}

// isolate removes key from the layer along with every edge to it, then
// replenishes the nodes that lost a neighbor.
func (l *layer[K]) isolate(key K, m int, dist BottleneckFunc) bool {
	if _, ok := l.nodes[key]; !ok {
		return false
	}
	delete(l.nodes, key)

	// Unlink everywhere first so replenish cannot rediscover the node.
	var affected []*layerNode[K]
	for _, node := range l.nodes {
		if _, ok := node.neighbors[key]; ok {
			delete(node.neighbors, key)
			affected = append(affected, node)
		}
	}
	for _, node := range affected {
		node.replenish(m, dist)
	}
	return true
}

func (l *layer[K]) size() int {
	if l == nil {
		return 0
	}
	return len(l.nodes)
}

// Graph is a Hierarchical Navigable Small World index of diagrams, for
// retrieving the diagrams nearest to a query under a bottleneck distance.
// All public parameters must be set before adding nodes.
// Multi-threaded access must be synchronized externally.
type Graph[K cmp.Ordered] struct {
	// Distance compares diagrams. NewGraph takes it from a Capabilities
	// table.
	Distance BottleneckFunc

	// Rng is used for level generation.
	Rng *rand.Rand

	// M is the maximum number of neighbors to keep for each node.
	M int

	// Ml is the level generation factor.
	// E.g., for Ml = 0.25, each layer is 1/4 the size of the previous layer.
	Ml float64

	// EfSearch is the number of nodes to consider in the search phase.
	EfSearch int

	layers []*layer[K]
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewGraph returns a graph with default parameters that measures with the
// bottleneck function of caps.
func NewGraph[K cmp.Ordered](caps *Capabilities) *Graph[K] {
	return &Graph[K]{
		M:        8,
		Ml:       0.25,
		Distance: caps.BottleneckFunc(),
		EfSearch: 20,
		Rng:      defaultRand(),
	}
}

// DistanceName returns the registered name of the graph's distance, if any.
func (g *Graph[K]) DistanceName() (string, bool) {
	if g.Distance == nil {
		return "", false
	}
	return bottleneckFuncToName(g.Distance)
}

// maxLevel returns an upper-bound on the number of levels in the graph
// based on the size of the base layer.
func maxLevel(ml float64, numNodes int) (int, error) {
	if ml == 0 {
		return 0, fmt.Errorf("ml must be greater than 0")
	}
	if numNodes == 0 {
		return 1, nil
	}

	l := math.Log(float64(numNodes))
	l /= math.Log(1 / ml)

	return int(math.Round(l)) + 1, nil
}

// randomLevel generates a random level for a new node.
func (g *Graph[K]) randomLevel() (int, error) {
	max := 1
	if len(g.layers) > 0 {
		var err error
		max, err = maxLevel(g.Ml, g.layers[0].size())
		if err != nil {
			return 0, err
		}
	}

	if g.Rng == nil {
		g.Rng = defaultRand()
	}
	for level := 0; level < max; level++ {
		if g.Rng.Float64() > g.Ml {
			return level, nil
		}
	}
	return max, nil
}

func ptr[T any](v T) *T {
	return &v
}

// Add inserts nodes into the graph.
// If another node with the same key exists, it is replaced.
func (g *Graph[K]) Add(nodes ...Node[K]) error {
	if err := g.Validate(); err != nil {
		return err
	}

	for _, node := range nodes {
		key := node.Key
		if _, ok := g.Lookup(key); ok {
			g.Delete(key)
		}

		insertLevel, err := g.randomLevel()
		if err != nil {
			return err
		}
		for insertLevel >= len(g.layers) {
			g.layers = append(g.layers, &layer[K]{})
		}

		var (
			elevator *K
			preLen   = g.Len()
		)

		// Insert node at each layer, beginning with the highest.
		for i := len(g.layers) - 1; i >= 0; i-- {
			layer := g.layers[i]
			newNode := &layerNode[K]{Node: node}

			if layer.entry() == nil {
				if insertLevel >= i {
					layer.nodes = map[K]*layerNode[K]{key: newNode}
				}
				continue
			}

			searchPoint := layer.entry()
			if elevator != nil {
				if p, ok := layer.nodes[*elevator]; ok {
					searchPoint = p
				}
			}

			neighborhood := searchPoint.search(g.M, g.EfSearch, node.Value, g.Distance)
			if len(neighborhood) == 0 {
				return fmt.Errorf("no nodes found in neighborhood search")
			}
			elevator = ptr(neighborhood[0].node.Key)

			if insertLevel >= i {
				layer.nodes[key] = newNode
				for _, c := range neighborhood {
					c.node.addNeighbor(newNode, g.M, g.Distance)
					newNode.addNeighbor(c.node, g.M, g.Distance)
				}
			}
		}

		if g.Len() != preLen+1 {
			return fmt.Errorf("node %v not added", key)
		}
	}

	return nil
}

// Search returns up to k stored nodes nearest to query, closest first.
func (g *Graph[K]) Search(query Diagram, k int) ([]Node[K], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0, got %d", k)
	}
	if g.Len() == 0 {
		return nil, nil
	}

	var elevator *K
	for l := len(g.layers) - 1; l >= 0; l-- {
		searchPoint := g.layers[l].entry()
		if searchPoint == nil {
			continue
		}
		if elevator != nil {
			if p, ok := g.layers[l].nodes[*elevator]; ok {
				searchPoint = p
			}
		}

		if l > 0 {
			found := searchPoint.search(1, g.EfSearch, query, g.Distance)
			elevator = ptr(found[0].node.Key)
			continue
		}

		found := searchPoint.search(k, g.EfSearch, query, g.Distance)
		out := make([]Node[K], 0, len(found))
		for _, c := range found {
			out = append(out, c.node.Node)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unreachable code reached")
}

// Len returns the number of nodes in the graph.
func (g *Graph[K]) Len() int {
	if len(g.layers) == 0 {
		return 0
	}
	return g.layers[0].size()
}

// Delete removes a node by key, replenishing the neighborhoods it leaves.
func (g *Graph[K]) Delete(key K) bool {
	var deleted bool
	for _, layer := range g.layers {
		if layer.isolate(key, g.M, g.Distance) {
			deleted = true
		}
	}
	return deleted
}

// Lookup returns the diagram stored under key.
func (g *Graph[K]) Lookup(key K) (Diagram, bool) {
	if len(g.layers) == 0 {
		return nil, false
	}
	node, ok := g.layers[0].nodes[key]
	if !ok {
		return nil, false
	}
	return node.Value, true
}

// Validate checks if the graph configuration is valid.
func (g *Graph[K]) Validate() error {
	if g.M <= 0 {
		return fmt.Errorf("M must be greater than 0, got %d", g.M)
	}
	if g.Ml <= 0 || g.Ml >= 1 {
		return fmt.Errorf("Ml must be between 0 and 1 (exclusive), got %f", g.Ml)
	}
	if g.EfSearch <= 0 {
		return fmt.Errorf("EfSearch must be greater than 0, got %d", g.EfSearch)
	}
	if g.Distance == nil {
		return fmt.Errorf("Distance function must be set")
	}
	return nil
}
