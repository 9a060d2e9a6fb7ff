package document

import (
	"fmt"
	"math"
	"slices"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Sketch payload
// ============================================================

// Sketch holds the ordered geometry and constraint lists of a sketch object.
// Geometry ids are list indices; constraints are append-only.
type Sketch struct {
	geometry    []models.Geometry
	constraints []models.Constraint
}

// AddGeometry appends g and returns its id.
func (s *Sketch) AddGeometry(g models.Geometry, construction bool) int {
	g.Construction = construction
	s.geometry = append(s.geometry, g)
	return len(s.geometry) - 1
}

// AddConstraint appends c after checking every geometry reference points at
// existing geometry (or a sketch axis). Returns the constraint index.
func (s *Sketch) AddConstraint(c models.Constraint) (int, error) {
	for _, id := range c.GeometryRefs() {
		if id == models.AxisX || id == models.AxisY {
			continue
		}
		if id < 0 || id >= len(s.geometry) {
			return -1, fmt.Errorf("constraint '%s' references invalid geometry id %d (sketch has %d geometries)", c.Type, id, len(s.geometry))
		}
	}
	for _, pos := range []int{c.FirstPos, c.SecondPos, c.ThirdPos} {
		if pos < models.PosNone || pos > models.PosMid {
			return -1, fmt.Errorf("constraint '%s' has invalid point position %d", c.Type, pos)
		}
	}
	s.constraints = append(s.constraints, c)
	return len(s.constraints) - 1, nil
}

func (s *Sketch) Geometry() []models.Geometry {
	return slices.Clone(s.geometry)
}

func (s *Sketch) Constraints() []models.Constraint {
	return slices.Clone(s.constraints)
}

func (s *Sketch) GeometryCount() int {
	return len(s.geometry)
}

func (s *Sketch) ConstraintCount() int {
	return len(s.constraints)
}

// bounds covers all non-construction geometry.
func (s *Sketch) bounds() (models.Vector, models.Vector, bool) {
	lo := models.Vector{X: math.Inf(1), Y: math.Inf(1)}
	hi := models.Vector{X: math.Inf(-1), Y: math.Inf(-1)}
	found := false
	for _, g := range s.geometry {
		if g.Construction {
			continue
		}
		a, b := g.Bounds()
		lo = models.Vector{X: math.Min(lo.X, a.X), Y: math.Min(lo.Y, a.Y)}
		hi = models.Vector{X: math.Max(hi.X, b.X), Y: math.Max(hi.Y, b.Y)}
		found = true
	}
	return lo, hi, found
}

// profileArea estimates the enclosed area: full circles count exactly,
// anything else is approximated by its bounding rectangle.
func (s *Sketch) profileArea() float64 {
	var circles float64
	onlyCircles := true
	for _, g := range s.geometry {
		if g.Construction {
			continue
		}
		if g.Kind == models.GeomCircle {
			circles += math.Pi * g.Radius * g.Radius
			continue
		}
		onlyCircles = false
	}
	if onlyCircles {
		return circles
	}
	lo, hi, _ := s.bounds()
	return (hi.X - lo.X) * (hi.Y - lo.Y)
}
