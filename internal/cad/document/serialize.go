package document

import (
	"cad-bridge/internal/cad/models"
)

// ============================================================
// Serialization
// ============================================================

// Serialize renders the object as a JSON-compatible map. Links are emitted
// by name; nothing returned holds a live handle.
func Serialize(o *Object) map[string]any {
	props := make(map[string]any, len(o.order))
	for _, name := range o.order {
		props[name] = serializeValue(o.props[name].value)
	}
	out := map[string]any{
		"Name":       o.Name,
		"Label":      o.Label(),
		"TypeId":     o.TypeID,
		"Properties": props,
		"ViewObject": map[string]any{
			"Visibility":   o.View.Visibility,
			"ShapeColor":   o.View.ShapeColor[:],
			"LineColor":    o.View.LineColor[:],
			"LineWidth":    o.View.LineWidth,
			"Transparency": o.View.Transparency,
			"DisplayMode":  o.View.DisplayMode,
		},
	}
	if o.err != "" {
		out["State"] = []string{"Invalid"}
		out["Error"] = o.err
	}
	if sk, ok := o.Sketch(); ok {
		out["GeometryCount"] = sk.GeometryCount()
		out["ConstraintCount"] = sk.ConstraintCount()
		out["Geometry"] = sk.Geometry()
		out["Constraints"] = sk.Constraints()
	}
	return out
}

func serializeValue(v any) any {
	switch val := v.(type) {
	case models.Vector:
		return vectorMap(val)
	case models.Placement:
		return map[string]any{
			"Base": vectorMap(val.Base),
			"Rotation": map[string]any{
				"Axis":  vectorMap(val.Rotation.Axis),
				"Angle": val.Rotation.Angle,
			},
		}
	case *Object:
		if val == nil {
			return nil
		}
		return val.Name
	case []*Object:
		names := make([]string, len(val))
		for i, o := range val {
			names[i] = o.Name
		}
		return names
	case []LinkSub:
		refs := make([][]string, len(val))
		for i, ls := range val {
			refs[i] = []string{ls.Object.Name, ls.Sub}
		}
		return refs
	case *models.Shape:
		if val.IsNull() {
			return nil
		}
		return map[string]any{
			"ShapeType": val.Kind,
			"Volume":    val.Volume,
			"BoundBox": map[string]any{
				"Min": vectorMap(val.Min),
				"Max": vectorMap(val.Max),
			},
		}
	case float64:
		if !models.IsFinite(val) {
			return nil
		}
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = serializeValue(item)
		}
		return out
	}
	return v
}

func vectorMap(v models.Vector) map[string]any {
	return map[string]any{"x": v.X, "y": v.Y, "z": v.Z}
}
