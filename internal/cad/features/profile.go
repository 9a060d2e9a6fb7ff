package features

import (
	"fmt"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/cad/props"
)

// ============================================================
// 2020 T-slot extrusion
// ============================================================

const (
	profileHalf    = 10.0
	boreRadius     = 2.5
	slotOpening    = 6.1
	slotDepth      = 1.8
	trackWidth     = 11.0
	trackDepth     = 6.0
	defaultVariant = "2020"
)

var defaultProfileColor = models.Color{0.7, 0.7, 0.75, 1}

// ProfileVariants lists the recognised variant tags.
var ProfileVariants = []string{"2020", "2020N1", "2020N2", "2020N3"}

type ProfileOptions struct {
	Length    float64
	Position  models.Vector
	Direction string
	// Color may carry 3 or 4 components; anything else selects the default.
	Color      []float64
	Simplified bool
	Variant    string
	// SealedRotation is 0, 90, 180 or 270.
	SealedRotation int
}

type ProfileResult struct {
	ObjectName string
	Message    string
}

// Create2020Extrusion builds a 20x20 framing profile of the given length
// along X, Y or Z. Simplified profiles are plain boxes; detailed ones are a
// solid square minus a centre bore and the slot/track pockets of every
// open side.
func (c *Commands) Create2020Extrusion(docName, name string, opts ProfileOptions) (ProfileResult, error) {
	doc, err := c.dispatch.Document(docName)
	if err != nil {
		return ProfileResult{}, err
	}
	dir := strings.ToUpper(opts.Direction)
	if dir == "" {
		dir = "Z"
	}
	if dir != "X" && dir != "Y" && dir != "Z" {
		return ProfileResult{}, caderr.Invalid("direction", opts.Direction, "X", "Y", "Z")
	}
	if opts.Length <= 0 {
		return ProfileResult{}, &caderr.ValidationError{Field: "length", Value: opts.Length, Detail: "Length must be positive."}
	}
	rot := ((opts.SealedRotation % 360) + 360) % 360
	if rot%90 != 0 {
		return ProfileResult{}, caderr.Invalid("sealed_rotation", opts.SealedRotation, "0", "90", "180", "270")
	}

	if err := checkName(doc, name); err != nil {
		return ProfileResult{}, err
	}

	var (
		obj    *document.Object
		values map[string]any
	)
	if opts.Simplified {
		if obj, err = doc.AddObject("Part::Box", name); err != nil {
			return ProfileResult{}, err
		}
		l, w, h, base := simplifiedBox(dir, opts.Length, opts.Position)
		values = map[string]any{
			"Length":    l,
			"Width":     w,
			"Height":    h,
			"Placement": models.NewPlacement(base, models.IdentityRotation()),
		}
	} else {
		if obj, err = doc.AddObject("Part::Feature", name); err != nil {
			return ProfileResult{}, err
		}
		values = map[string]any{
			"Shape":     DetailedProfile(opts.Length, OpenSides(opts.Variant, rot)),
			"Placement": models.NewPlacement(opts.Position, profileRotation(dir)),
		}
	}
	for prop, v := range values {
		if err := obj.Set(prop, v); err != nil {
			return ProfileResult{}, err
		}
	}
	obj.View.Visibility = true
	if err := obj.View.Set("ShapeColor", profileColor(opts.Color)); err != nil {
		c.logger.Warn("features.profile_color_rejected", "object", obj.Name, "error", err.Error())
	}
	c.dispatch.Recompute(doc)

	c.logger.Info("features.profile_created",
		"object", obj.Name,
		"direction", dir,
		"length", opts.Length,
		"simplified", opts.Simplified,
		"variant", normalizeVariant(opts.Variant),
	)
	return ProfileResult{
		ObjectName: obj.Name,
		Message:    fmt.Sprintf("2020 extrusion created (%gmm along %s axis)", opts.Length, dir),
	}, nil
}

// simplifiedBox returns box dimensions and the corner placement so the
// profile axis runs through position.
func simplifiedBox(dir string, length float64, p models.Vector) (l, w, h float64, base models.Vector) {
	switch dir {
	case "X":
		return length, 2 * profileHalf, 2 * profileHalf, models.Vector{X: p.X, Y: p.Y - profileHalf, Z: p.Z - profileHalf}
	case "Y":
		return 2 * profileHalf, length, 2 * profileHalf, models.Vector{X: p.X - profileHalf, Y: p.Y, Z: p.Z - profileHalf}
	}
	return 2 * profileHalf, 2 * profileHalf, length, models.Vector{X: p.X - profileHalf, Y: p.Y - profileHalf, Z: p.Z}
}

func profileRotation(dir string) models.Rotation {
	switch dir {
	case "X":
		return models.Rotation{Axis: models.Vector{Y: 1}, Angle: -90}
	case "Y":
		return models.Rotation{Axis: models.Vector{X: 1}, Angle: 90}
	}
	return models.IdentityRotation()
}

func normalizeVariant(v string) string {
	v = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(v)), "-", "")
	if v == "" {
		return defaultVariant
	}
	return v
}

// OpenSides returns which sides (0 bottom, 1 right, 2 top, 3 left) carry a
// slot for a variant and sealed rotation. Unknown variants are fully open.
func OpenSides(variant string, rotation int) [4]bool {
	base := (((rotation % 360) + 360) % 360) / 90
	var open [4]bool
	switch normalizeVariant(variant) {
	case "2020N1":
		open = [4]bool{true, true, true, true}
		open[base] = false
	case "2020N2":
		open = [4]bool{true, true, true, true}
		open[base] = false
		open[(base+1)%4] = false
	case "2020N3":
		open[base] = true
	default:
		open = [4]bool{true, true, true, true}
	}
	return open
}

// DetailedProfile builds the cross-section extruded along +Z from the
// profile centre.
func DetailedProfile(length float64, open [4]bool) *models.Shape {
	shape := models.BoxShape(models.Vector{X: -profileHalf, Y: -profileHalf}, 2*profileHalf, 2*profileHalf, length)
	shape = shape.Cut(models.CylinderShape(models.Vector{}, boreRadius, length))

	h, so, sd := profileHalf, slotOpening, slotDepth
	track := trackDepth - slotDepth
	pockets := [4][2]*models.Shape{
		{
			models.BoxShape(models.Vector{X: -so / 2, Y: -h}, so, sd, length),
			models.BoxShape(models.Vector{X: -trackWidth / 2, Y: -h + sd}, trackWidth, track, length),
		},
		{
			models.BoxShape(models.Vector{X: h - sd, Y: -so / 2}, sd, so, length),
			models.BoxShape(models.Vector{X: h - trackDepth, Y: -trackWidth / 2}, track, trackWidth, length),
		},
		{
			models.BoxShape(models.Vector{X: -so / 2, Y: h - sd}, so, sd, length),
			models.BoxShape(models.Vector{X: -trackWidth / 2, Y: h - trackDepth}, trackWidth, track, length),
		},
		{
			models.BoxShape(models.Vector{X: -h, Y: -so / 2}, sd, so, length),
			models.BoxShape(models.Vector{X: -h, Y: -trackWidth / 2}, track, trackWidth, length),
		},
	}
	for side, cut := range pockets {
		if !open[side] {
			continue
		}
		shape = shape.Cut(cut[0]).Cut(cut[1])
	}
	return shape
}

func profileColor(c []float64) models.Color {
	switch {
	case len(c) >= 4:
		return models.Color{c[0], c[1], c[2], c[3]}
	case len(c) == 3:
		return models.Color{c[0], c[1], c[2], 1}
	}
	return defaultProfileColor
}

// ColorComponents reads an optional RGB(A) list from a request argument.
func ColorComponents(v any) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	return props.Floats(v)
}
