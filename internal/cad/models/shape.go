package models

import (
	"math"
)

// ============================================================
// Shape
// ============================================================

// Shape is a CSG-style solid summary: an operator tree with axis-aligned
// bounds and an estimated volume. Exact boolean evaluation is the kernel's
// job; the bridge only needs to carry and report results.
type Shape struct {
	Kind     string   `json:"kind"`
	Min      Vector   `json:"min"`
	Max      Vector   `json:"max"`
	Volume   float64  `json:"volume"`
	Children []*Shape `json:"children,omitempty"`
}

// Finite reports whether bounds and volume are representable. Dimensions
// near the float64 limit overflow to infinity once multiplied out.
func (s *Shape) Finite() bool {
	return s == nil || (s.Min.Finite() && s.Max.Finite() && IsFinite(s.Volume))
}

func BoxShape(origin Vector, length, width, height float64) *Shape {
	return &Shape{
		Kind:   "box",
		Min:    origin,
		Max:    origin.Add(Vector{X: length, Y: width, Z: height}),
		Volume: math.Abs(length * width * height),
	}
}

// CylinderShape is a cylinder standing on base along +Z.
func CylinderShape(base Vector, radius, height float64) *Shape {
	return &Shape{
		Kind:   "cylinder",
		Min:    base.Sub(Vector{X: radius, Y: radius}),
		Max:    base.Add(Vector{X: radius, Y: radius, Z: height}),
		Volume: math.Pi * radius * radius * math.Abs(height),
	}
}

func SphereShape(center Vector, radius float64) *Shape {
	r := Vector{X: radius, Y: radius, Z: radius}
	return &Shape{
		Kind:   "sphere",
		Min:    center.Sub(r),
		Max:    center.Add(r),
		Volume: 4.0 / 3.0 * math.Pi * radius * radius * radius,
	}
}

func ConeShape(base Vector, r1, r2, height float64) *Shape {
	r := math.Max(r1, r2)
	return &Shape{
		Kind:   "cone",
		Min:    base.Sub(Vector{X: r, Y: r}),
		Max:    base.Add(Vector{X: r, Y: r, Z: height}),
		Volume: math.Pi * math.Abs(height) / 3 * (r1*r1 + r1*r2 + r2*r2),
	}
}

// PrismShape extrudes a planar region with the given bounds and area along dir.
func PrismShape(min, max Vector, area float64, dir Vector) *Shape {
	lo, hi := min, max
	end0, end1 := min.Add(dir), max.Add(dir)
	lo = minVector(lo, minVector(end0, end1))
	hi = maxVector(hi, maxVector(end0, end1))
	return &Shape{
		Kind:   "prism",
		Min:    lo,
		Max:    hi,
		Volume: math.Abs(area) * dir.Length(),
	}
}

func (s *Shape) IsNull() bool {
	return s == nil || s.Kind == ""
}

// Moved returns a copy of s placed by p. Bounds are re-fitted around the
// transformed corners.
func (s *Shape) Moved(p Placement) *Shape {
	if s.IsNull() {
		return s
	}
	lo := Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, c := range s.corners() {
		t := p.Transform(c)
		lo = minVector(lo, t)
		hi = maxVector(hi, t)
	}
	out := *s
	out.Min, out.Max = lo, hi
	return &out
}

func (s *Shape) Cut(tool *Shape) *Shape {
	overlap := math.Min(s.overlapVolume(tool), tool.Volume)
	return &Shape{
		Kind:     "cut",
		Min:      s.Min,
		Max:      s.Max,
		Volume:   math.Max(0, s.Volume-overlap),
		Children: []*Shape{s, tool},
	}
}

func (s *Shape) Fuse(tool *Shape) *Shape {
	overlap := math.Min(s.overlapVolume(tool), math.Min(s.Volume, tool.Volume))
	return &Shape{
		Kind:     "fuse",
		Min:      minVector(s.Min, tool.Min),
		Max:      maxVector(s.Max, tool.Max),
		Volume:   s.Volume + tool.Volume - overlap,
		Children: []*Shape{s, tool},
	}
}

func (s *Shape) Common(tool *Shape) *Shape {
	lo := maxVector(s.Min, tool.Min)
	hi := minVector(s.Max, tool.Max)
	if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
		lo, hi = Vector{}, Vector{}
	}
	return &Shape{
		Kind:     "common",
		Min:      lo,
		Max:      hi,
		Volume:   math.Min(s.overlapVolume(tool), math.Min(s.Volume, tool.Volume)),
		Children: []*Shape{s, tool},
	}
}

func (s *Shape) Size() Vector {
	return s.Max.Sub(s.Min)
}

func (s *Shape) overlapVolume(o *Shape) float64 {
	dx := math.Min(s.Max.X, o.Max.X) - math.Max(s.Min.X, o.Min.X)
	dy := math.Min(s.Max.Y, o.Max.Y) - math.Max(s.Min.Y, o.Min.Y)
	dz := math.Min(s.Max.Z, o.Max.Z) - math.Max(s.Min.Z, o.Min.Z)
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return dx * dy * dz
}

func (s *Shape) corners() []Vector {
	a, b := s.Min, s.Max
	return []Vector{
		{X: a.X, Y: a.Y, Z: a.Z}, {X: b.X, Y: a.Y, Z: a.Z},
		{X: a.X, Y: b.Y, Z: a.Z}, {X: b.X, Y: b.Y, Z: a.Z},
		{X: a.X, Y: a.Y, Z: b.Z}, {X: b.X, Y: a.Y, Z: b.Z},
		{X: a.X, Y: b.Y, Z: b.Z}, {X: b.X, Y: b.Y, Z: b.Z},
	}
}

func minVector(a, b Vector) Vector {
	return Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVector(a, b Vector) Vector {
	return Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
