package document

import (
	"fmt"
	"slices"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// View provider
// ============================================================

var displayModes = []string{"Flat Lines", "Shaded", "Wireframe", "Points"}

// ViewObject is the display layer of an object. Objects added without an
// interactive view start hidden.
type ViewObject struct {
	Visibility   bool
	ShapeColor   models.Color
	LineColor    models.Color
	LineWidth    float64
	PointSize    float64
	Transparency int
	DisplayMode  string
}

func newViewObject() *ViewObject {
	return &ViewObject{
		Visibility:  false,
		ShapeColor:  models.Color{0.8, 0.8, 0.8, 1},
		LineColor:   models.Color{0.1, 0.1, 0.1, 1},
		LineWidth:   2,
		PointSize:   2,
		DisplayMode: "Flat Lines",
	}
}

// Set assigns a display attribute by name.
func (v *ViewObject) Set(name string, value any) error {
	switch name {
	case "Visibility":
		b, ok := value.(bool)
		if !ok {
			return viewTypeError(name, value)
		}
		v.Visibility = b
	case "ShapeColor", "LineColor":
		c, ok := value.(models.Color)
		if !ok {
			return viewTypeError(name, value)
		}
		for _, comp := range c {
			if comp < 0 || comp > 1 {
				return fmt.Errorf("color component %v out of range [0, 1]", comp)
			}
		}
		if name == "ShapeColor" {
			v.ShapeColor = c
		} else {
			v.LineColor = c
		}
	case "LineWidth", "PointSize":
		f, ok := toFloat(value)
		if !ok {
			return viewTypeError(name, value)
		}
		if name == "LineWidth" {
			v.LineWidth = f
		} else {
			v.PointSize = f
		}
	case "Transparency":
		f, ok := toFloat(value)
		if !ok || f < 0 || f > 100 {
			return viewTypeError(name, value)
		}
		v.Transparency = int(f)
	case "DisplayMode":
		s, ok := value.(string)
		if !ok || !slices.Contains(displayModes, s) {
			return viewTypeError(name, value)
		}
		v.DisplayMode = s
	default:
		return fmt.Errorf("'ViewProvider' object has no attribute '%s'", name)
	}
	return nil
}

func viewTypeError(name string, value any) error {
	return fmt.Errorf("view property '%s' cannot be set from %v (%T)", name, value, value)
}
