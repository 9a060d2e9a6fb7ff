package models

import (
	"math"
)

// ============================================================
// Sketch geometry
// ============================================================

type GeometryKind string

const (
	GeomLine   GeometryKind = "line"
	GeomCircle GeometryKind = "circle"
	GeomArc    GeometryKind = "arc"
)

// Point positions on a geometry element.
const (
	PosNone  = 0
	PosStart = 1
	PosEnd   = 2
	PosMid   = 3
)

// Reserved geometry ids: the sketch X and Y axes and "no geometry".
const (
	AxisX    = -1
	AxisY    = -2
	GeoUndef = -2000
)

type Geometry struct {
	Kind         GeometryKind `json:"kind"`
	Start        Vector       `json:"start"`
	End          Vector       `json:"end"`
	Center       Vector       `json:"center"`
	Radius       float64      `json:"radius,omitempty"`
	StartAngle   float64      `json:"start_angle,omitempty"` // radians
	EndAngle     float64      `json:"end_angle,omitempty"`   // radians
	Construction bool         `json:"construction"`
}

func LineSegment(a, b Vector) Geometry {
	return Geometry{Kind: GeomLine, Start: a, End: b, Center: a.Add(b).Scale(0.5)}
}

func Circle(center Vector, radius float64) Geometry {
	return Geometry{Kind: GeomCircle, Center: center, Radius: radius}
}

func ArcOfCircle(center Vector, radius, startAngle, endAngle float64) Geometry {
	return Geometry{
		Kind:       GeomArc,
		Center:     center,
		Radius:     radius,
		StartAngle: startAngle,
		EndAngle:   endAngle,
		Start:      center.Add(Vector{X: radius * math.Cos(startAngle), Y: radius * math.Sin(startAngle)}),
		End:        center.Add(Vector{X: radius * math.Cos(endAngle), Y: radius * math.Sin(endAngle)}),
	}
}

// Point returns the vertex at pos (PosStart, PosEnd, PosMid).
func (g Geometry) Point(pos int) (Vector, bool) {
	switch pos {
	case PosStart:
		return g.Start, g.Kind != GeomCircle
	case PosEnd:
		return g.End, g.Kind != GeomCircle
	case PosMid:
		return g.Center, true
	}
	return Vector{}, false
}

// Bounds returns the 2-D extent of the element.
func (g Geometry) Bounds() (Vector, Vector) {
	if g.Kind == GeomLine {
		return minVector(g.Start, g.End), maxVector(g.Start, g.End)
	}
	r := Vector{X: g.Radius, Y: g.Radius}
	return g.Center.Sub(r), g.Center.Add(r)
}

// ============================================================
// Sketch constraints
// ============================================================

type Constraint struct {
	Type      string  `json:"type"`
	First     int     `json:"first"`
	FirstPos  int     `json:"first_pos"`
	Second    int     `json:"second"`
	SecondPos int     `json:"second_pos"`
	Third     int     `json:"third"`
	ThirdPos  int     `json:"third_pos"`
	Value     float64 `json:"value,omitempty"`
}

func newConstraint(kind string) Constraint {
	return Constraint{Type: kind, First: GeoUndef, Second: GeoUndef, Third: GeoUndef}
}

func Horizontal(geo int) Constraint {
	c := newConstraint("Horizontal")
	c.First = geo
	return c
}

func Vertical(geo int) Constraint {
	c := newConstraint("Vertical")
	c.First = geo
	return c
}

func Coincident(geo1, pos1, geo2, pos2 int) Constraint {
	c := newConstraint("Coincident")
	c.First, c.FirstPos = geo1, pos1
	c.Second, c.SecondPos = geo2, pos2
	return c
}

func Distance(geo int, value float64) Constraint {
	c := newConstraint("Distance")
	c.First, c.Value = geo, value
	return c
}

func Radius(geo int, value float64) Constraint {
	c := newConstraint("Radius")
	c.First, c.Value = geo, value
	return c
}

func Equal(geo1, geo2 int) Constraint {
	c := newConstraint("Equal")
	c.First, c.Second = geo1, geo2
	return c
}

func Perpendicular(geo1, geo2 int) Constraint {
	c := newConstraint("Perpendicular")
	c.First, c.Second = geo1, geo2
	return c
}

func Parallel(geo1, geo2 int) Constraint {
	c := newConstraint("Parallel")
	c.First, c.Second = geo1, geo2
	return c
}

func Fixed(geo, pos int) Constraint {
	c := newConstraint("Fixed")
	c.First, c.FirstPos = geo, pos
	return c
}

// Symmetric makes two points symmetric about a line (usually AxisX/AxisY).
func Symmetric(geo1, pos1, geo2, pos2, line int) Constraint {
	c := newConstraint("Symmetric")
	c.First, c.FirstPos = geo1, pos1
	c.Second, c.SecondPos = geo2, pos2
	c.Third = line
	return c
}

// GeometryRefs lists the geometry ids the constraint points at.
func (c Constraint) GeometryRefs() []int {
	var out []int
	for _, id := range []int{c.First, c.Second, c.Third} {
		if id != GeoUndef {
			out = append(out, id)
		}
	}
	return out
}
