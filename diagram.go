package pdist

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPoint is returned by Diagram.Validate for a point that cannot
// appear in a persistence diagram.
var ErrInvalidPoint = errors.New("invalid diagram point")

// Point is a (birth, death) pair of a persistence diagram.
// A point with Death == +Inf is an essential class.
type Point struct {
	Birth float64
	Death float64
}

// Persistence returns Death - Birth.
func (p Point) Persistence() float64 {
	return p.Death - p.Birth
}

func (p Point) IsEssential() bool {
	return math.IsInf(p.Death, 1)
}

// diagonalDistance is the L∞ distance from p to its projection
// onto the diagonal.
func (p Point) diagonalDistance() float64 {
	return math.Abs(p.Death-p.Birth) / 2
}

// Diagram is a multiset of persistence pairs.
// Order carries no meaning; duplicates are allowed.
type Diagram []Point

// MakeDiagram builds a diagram from flat (birth, death) pairs.
func MakeDiagram(pairs ...[2]float64) Diagram {
	d := make(Diagram, len(pairs))
	for i, p := range pairs {
		d[i] = Point{Birth: p[0], Death: p[1]}
	}
	return d
}

// Validate reports the first point that is not a valid persistence pair.
// Distance functions do not call Validate; they accept any input.
func (d Diagram) Validate() error {
	for i, p := range d {
		switch {
		case math.IsNaN(p.Birth) || math.IsNaN(p.Death):
			return fmt.Errorf("point %d: NaN coordinate: %w", i, ErrInvalidPoint)
		case math.IsInf(p.Birth, 0):
			return fmt.Errorf("point %d: infinite birth: %w", i, ErrInvalidPoint)
		case p.Death < p.Birth:
			return fmt.Errorf("point %d: death %g before birth %g: %w", i, p.Death, p.Birth, ErrInvalidPoint)
		}
	}
	return nil
}

// Finite returns the points with a finite death.
func (d Diagram) Finite() Diagram {
	out := make(Diagram, 0, len(d))
	for _, p := range d {
		if !p.IsEssential() {
			out = append(out, p)
		}
	}
	return out
}

// Essential returns the points that never die.
func (d Diagram) Essential() Diagram {
	var out Diagram
	for _, p := range d {
		if p.IsEssential() {
			out = append(out, p)
		}
	}
	return out
}

func (d Diagram) Clone() Diagram {
	if d == nil {
		return nil
	}
	out := make(Diagram, len(d))
	copy(out, d)
	return out
}

// columns splits the diagram into birth and death slices, the layout the
// vek kernels operate on.
func (d Diagram) columns() (births, deaths []float64) {
	births = make([]float64, len(d))
	deaths = make([]float64, len(d))
	for i, p := range d {
		births[i] = p.Birth
		deaths[i] = p.Death
	}
	return births, deaths
}
