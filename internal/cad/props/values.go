package props

import (
	"encoding/json"
	"fmt"
	"strconv"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Untyped value conversion
// ============================================================

// Number converts a decoded JSON (or script) number to float64. NaN and
// infinities are not numbers here.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, models.IsFinite(f)
}

// NumberOr returns m[key] as a number, or def when the key is absent.
func NumberOr(m map[string]any, key string, def float64) (float64, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := Number(raw)
	if !ok {
		return 0, fmt.Errorf("'%s' must be a finite number, got %v", key, raw)
	}
	return f, nil
}

// IntOr is NumberOr truncated to an int.
func IntOr(m map[string]any, key string, def int) (int, error) {
	f, err := NumberOr(m, key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func StringOr(m map[string]any, key, def string) string {
	switch s := m[key].(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return def
}

func BoolOr(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

// Vector reads x/y/z keys; absent keys keep the component from def.
func Vector(m map[string]any, def models.Vector) (models.Vector, error) {
	var err error
	v := def
	if v.X, err = NumberOr(m, "x", def.X); err != nil {
		return v, err
	}
	if v.Y, err = NumberOr(m, "y", def.Y); err != nil {
		return v, err
	}
	if v.Z, err = NumberOr(m, "z", def.Z); err != nil {
		return v, err
	}
	return v, nil
}

// Placement builds a placement from {Base|Position: {x,y,z},
// Rotation: {Axis: {x,y,z}, Angle: degrees}}. The axis defaults to +Z.
func Placement(m map[string]any) (models.Placement, error) {
	pos := map[string]any{}
	for _, key := range []string{"Base", "Position"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		mm, ok := raw.(map[string]any)
		if !ok {
			return models.Placement{}, fmt.Errorf("placement %s must be an {x, y, z} map", key)
		}
		pos = mm
		break
	}
	base, err := Vector(pos, models.Vector{})
	if err != nil {
		return models.Placement{}, err
	}

	rot := models.IdentityRotation()
	if raw, ok := m["Rotation"]; ok && raw != nil {
		rm, ok := raw.(map[string]any)
		if !ok {
			return models.Placement{}, fmt.Errorf("placement Rotation must be a map")
		}
		axis := map[string]any{}
		if am, ok := rm["Axis"].(map[string]any); ok {
			axis = am
		}
		if rot.Axis, err = Vector(axis, models.Vector{Z: 1}); err != nil {
			return models.Placement{}, err
		}
		if rot.Angle, err = NumberOr(rm, "Angle", 0); err != nil {
			return models.Placement{}, err
		}
	}
	return models.NewPlacement(base, rot), nil
}

// Floats converts a list of numbers.
func Floats(v any) ([]float64, error) {
	switch list := v.(type) {
	case []float64:
		return list, nil
	case models.Color:
		return list[:], nil
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, ok := Number(item)
			if !ok {
				return nil, fmt.Errorf("element %d is not a number: %v", i, item)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of numbers, got %T", v)
}

// Color converts an RGBA list. Extra components are ignored.
func Color(v any) (models.Color, error) {
	f, err := Floats(v)
	if err != nil {
		return models.Color{}, err
	}
	if len(f) < 4 {
		return models.Color{}, fmt.Errorf("color needs 4 components (r, g, b, a), got %d", len(f))
	}
	return models.Color{f[0], f[1], f[2], f[3]}, nil
}

// FaceRefs converts a list of [object, sub] pairs or {object, sub} maps.
func FaceRefs(v any) ([]models.FaceRef, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("References must be a list of [object, face] pairs, got %T", v)
	}
	refs := make([]models.FaceRef, 0, len(list))
	for i, item := range list {
		switch ref := item.(type) {
		case []any:
			if len(ref) != 2 {
				return nil, fmt.Errorf("reference %d must be an [object, face] pair", i)
			}
			name, ok1 := ref[0].(string)
			sub, ok2 := ref[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("reference %d must hold two strings", i)
			}
			refs = append(refs, models.FaceRef{Object: name, Sub: sub})
		case map[string]any:
			name := StringOr(ref, "object", "")
			if name == "" {
				return nil, fmt.Errorf("reference %d has no object", i)
			}
			refs = append(refs, models.FaceRef{Object: name, Sub: StringOr(ref, "sub", "")})
		default:
			return nil, fmt.Errorf("reference %d has unsupported type %T", i, item)
		}
	}
	return refs, nil
}
