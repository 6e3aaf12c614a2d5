package pdist

import (
	"cmp"
	"math"
)

// Analyzer summarises a single diagram.
type Analyzer struct {
	Diagram Diagram
}

// DiagramSummary holds descriptive statistics of a diagram.
type DiagramSummary struct {
	// Points is the total number of points.
	Points int

	// Essential is the number of points that never die.
	Essential int

	// TotalPersistence sums the persistence of finite points.
	TotalPersistence float64

	// MaxPersistence is the largest finite persistence.
	MaxPersistence float64

	// MeanPersistence is TotalPersistence over the finite points.
	MeanPersistence float64

	// Entropy is the persistent entropy of the finite points.
	Entropy float64
}

func (a *Analyzer) Summary() DiagramSummary {
	finite := a.Diagram.Finite()
	s := DiagramSummary{
		Points:    len(a.Diagram),
		Essential: len(a.Diagram) - len(finite),
	}
	for _, p := range finite {
		pers := p.Persistence()
		s.TotalPersistence += pers
		s.MaxPersistence = math.Max(s.MaxPersistence, pers)
	}
	if len(finite) > 0 {
		s.MeanPersistence = s.TotalPersistence / float64(len(finite))
	}
	s.Entropy = a.Entropy()
	return s
}

// Entropy returns the Shannon entropy of the finite persistences
// normalized to a distribution. Points with zero persistence contribute
// nothing.
func (a *Analyzer) Entropy() float64 {
	var total float64
	for _, p := range a.Diagram.Finite() {
		total += p.Persistence()
	}
	if total <= 0 {
		return 0
	}

	var h float64
	for _, p := range a.Diagram.Finite() {
		pers := p.Persistence()
		if pers <= 0 {
			continue
		}
		q := pers / total
		h -= q * math.Log(q)
	}
	return h
}

// GraphAnalyzer reports on the shape of a Graph. It offers no
// compatibility guarantee as the measurements change with the
// implementation.
type GraphAnalyzer[K cmp.Ordered] struct {
	Graph *Graph[K]
}

func (a *GraphAnalyzer[K]) Height() int {
	return len(a.Graph.layers)
}

// Connectivity returns the average number of edges in the
// graph for each non-empty layer.
func (a *GraphAnalyzer[K]) Connectivity() []float64 {
	var layerConnectivity []float64
	for _, layer := range a.Graph.layers {
		if len(layer.nodes) == 0 {
			continue
		}

		var sum float64
		for _, node := range layer.nodes {
			sum += float64(len(node.neighbors))
		}

		layerConnectivity = append(layerConnectivity, sum/float64(len(layer.nodes)))
	}

	return layerConnectivity
}

// Topography returns the number of nodes in each layer of the graph.
func (a *GraphAnalyzer[K]) Topography() []int {
	var topography []int
	for _, layer := range a.Graph.layers {
		topography = append(topography, len(layer.nodes))
	}
	return topography
}
