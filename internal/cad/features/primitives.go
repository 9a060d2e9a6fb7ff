package features

import (
	"fmt"
	"math"

	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/models"
)

// ============================================================
// Convenience primitives
// ============================================================

// The commands below only shape a generic create request; validation,
// property coercion and recompute happen in dispatch.

type BoxOptions struct {
	Length, Width, Height float64
	Position              *models.Vector
	Color                 []float64
}

func (c *Commands) CreateBox(docName, name string, opts BoxOptions) (dispatch.Outcome, error) {
	properties := map[string]any{
		"Length": opts.Length,
		"Width":  opts.Width,
		"Height": opts.Height,
	}
	if opts.Position != nil {
		properties["Placement"] = models.NewPlacement(*opts.Position, models.IdentityRotation())
	}
	withColor(properties, opts.Color)
	return c.dispatch.Create(docName, dispatch.Request{Name: name, Type: "Part::Box", Properties: properties})
}

type CylinderOptions struct {
	Radius, Height float64
	Position       *models.Vector
	// Direction is the cylinder axis; nil keeps +Z.
	Direction *models.Vector
	Color     []float64
}

func (c *Commands) CreateCylinder(docName, name string, opts CylinderOptions) (dispatch.Outcome, error) {
	properties := map[string]any{
		"Radius": opts.Radius,
		"Height": opts.Height,
	}
	if opts.Position != nil || opts.Direction != nil {
		var base models.Vector
		if opts.Position != nil {
			base = *opts.Position
		}
		rot := models.IdentityRotation()
		if opts.Direction != nil {
			r, err := AlignZ(*opts.Direction)
			if err != nil {
				return dispatch.Outcome{}, err
			}
			rot = r
		}
		properties["Placement"] = models.NewPlacement(base, rot)
	}
	withColor(properties, opts.Color)
	return c.dispatch.Create(docName, dispatch.Request{Name: name, Type: "Part::Cylinder", Properties: properties})
}

// AlignZ returns the rotation taking +Z onto dir.
func AlignZ(dir models.Vector) (models.Rotation, error) {
	l := dir.Length()
	if l == 0 {
		return models.Rotation{}, fmt.Errorf("direction must be a non-zero vector")
	}
	d := dir.Scale(1 / l)
	axis := models.Vector{X: -d.Y, Y: d.X}
	if axis.Length() < 1e-12 {
		if d.Z > 0 {
			return models.IdentityRotation(), nil
		}
		return models.Rotation{Axis: models.Vector{X: 1}, Angle: 180}, nil
	}
	angle := math.Acos(math.Max(-1, math.Min(1, d.Z))) * 180 / math.Pi
	return models.Rotation{Axis: axis, Angle: angle}, nil
}

type FastenerOptions struct {
	Type     string
	Position *models.Vector
	AttachTo string
	Diameter string
	Length   string
}

// CreateFastener routes a fastener through the fastener strategy. Empty
// diameter and length fall back to M4 x 10.
func (c *Commands) CreateFastener(docName, name string, opts FastenerOptions) (dispatch.Outcome, error) {
	if opts.Diameter == "" {
		opts.Diameter = "M4"
	}
	if opts.Length == "" {
		opts.Length = "10"
	}
	properties := map[string]any{
		"Diameter": opts.Diameter,
		"Length":   opts.Length,
	}
	if opts.AttachTo != "" {
		properties["AttachTo"] = opts.AttachTo
	}
	if opts.Position != nil {
		properties["Placement"] = models.NewPlacement(*opts.Position, models.IdentityRotation())
	}
	return c.dispatch.Create(docName, dispatch.Request{
		Name:       name,
		Type:       dispatch.FastenerPrefix + opts.Type,
		Properties: properties,
	})
}

func withColor(properties map[string]any, color []float64) {
	if len(color) == 0 {
		return
	}
	properties["ViewObject"] = map[string]any{"ShapeColor": color}
}
