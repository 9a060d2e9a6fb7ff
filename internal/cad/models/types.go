package models

import (
	"math"
)

// ============================================================
// Vectors & placements
// ============================================================

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Finite reports whether no component is NaN or infinite.
func (v Vector) Finite() bool {
	return IsFinite(v.X) && IsFinite(v.Y) && IsFinite(v.Z)
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Rotation is an axis/angle rotation. Angle is in degrees.
type Rotation struct {
	Axis  Vector  `json:"axis"`
	Angle float64 `json:"angle"`
}

// IdentityRotation returns a zero rotation about +Z.
func IdentityRotation() Rotation {
	return Rotation{Axis: Vector{Z: 1}}
}

// Apply rotates v about the origin (Rodrigues' formula).
func (r Rotation) Apply(v Vector) Vector {
	if r.Angle == 0 {
		return v
	}
	l := r.Axis.Length()
	if l == 0 {
		return v
	}
	k := r.Axis.Scale(1 / l)
	rad := r.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	cross := Vector{
		X: k.Y*v.Z - k.Z*v.Y,
		Y: k.Z*v.X - k.X*v.Z,
		Z: k.X*v.Y - k.Y*v.X,
	}
	dot := k.X*v.X + k.Y*v.Y + k.Z*v.Z

	return v.Scale(cos).Add(cross.Scale(sin)).Add(k.Scale(dot * (1 - cos)))
}

type Placement struct {
	Base     Vector   `json:"base"`
	Rotation Rotation `json:"rotation"`
}

func NewPlacement(base Vector, rot Rotation) Placement {
	return Placement{Base: base, Rotation: rot}
}

func (p Placement) Finite() bool {
	return p.Base.Finite() && p.Rotation.Axis.Finite() && IsFinite(p.Rotation.Angle)
}

// Transform maps a local point to global coordinates.
func (p Placement) Transform(v Vector) Vector {
	return p.Rotation.Apply(v).Add(p.Base)
}

// ============================================================
// Display attributes
// ============================================================

// Color is RGBA, each component in [0, 1].
type Color [4]float64

// ============================================================
// Cross-object references
// ============================================================

// FaceRef is a (object, sub-element) pair such as ("Box", "Face1").
type FaceRef struct {
	Object string `json:"object"`
	Sub    string `json:"sub"`
}
