package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Property kinds
// ============================================================

type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindString
	KindEnum
	KindVector
	KindPlacement
	KindLink
	KindLinkList
	KindLinkSubList
	KindShape
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "App::PropertyFloat"
	case KindInt:
		return "App::PropertyInteger"
	case KindBool:
		return "App::PropertyBool"
	case KindString:
		return "App::PropertyString"
	case KindEnum:
		return "App::PropertyEnumeration"
	case KindVector:
		return "App::PropertyVector"
	case KindPlacement:
		return "App::PropertyPlacement"
	case KindLink:
		return "App::PropertyLink"
	case KindLinkList:
		return "App::PropertyLinkList"
	case KindLinkSubList:
		return "App::PropertyLinkSubList"
	case KindShape:
		return "Part::PropertyPartShape"
	case KindMap:
		return "App::PropertyMap"
	}
	return "App::Property"
}

// LinkSub is a resolved (object, sub-element) reference.
type LinkSub struct {
	Object *Object
	Sub    string
}

type PropertySpec struct {
	Name    string
	Kind    Kind
	Default any
	Enum    []string
}

type property struct {
	spec  PropertySpec
	value any
}

// ============================================================
// Coercion to declared kinds
// ============================================================

func coerce(spec PropertySpec, value any) (any, error) {
	switch spec.Kind {
	case KindFloat:
		if f, ok := toFloat(value); ok {
			return f, nil
		}
	case KindInt:
		if f, ok := toFloat(value); ok && f == math.Trunc(f) {
			return int(f), nil
		}
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case KindEnum:
		if s, ok := value.(string); ok {
			if slices.Contains(spec.Enum, s) {
				return s, nil
			}
			return nil, fmt.Errorf("'%s' is not part of the enumeration %v", s, spec.Enum)
		}
	case KindVector:
		if v, ok := value.(models.Vector); ok {
			if !v.Finite() {
				return nil, fmt.Errorf("property '%s' must have finite components", spec.Name)
			}
			return v, nil
		}
	case KindPlacement:
		if p, ok := value.(models.Placement); ok {
			if !p.Finite() {
				return nil, fmt.Errorf("property '%s' must have finite components", spec.Name)
			}
			return p, nil
		}
	case KindLink:
		if value == nil {
			return (*Object)(nil), nil
		}
		if o, ok := value.(*Object); ok {
			return o, nil
		}
	case KindLinkList:
		if l, ok := value.([]*Object); ok {
			return slices.Clone(l), nil
		}
	case KindLinkSubList:
		if l, ok := value.([]LinkSub); ok {
			return slices.Clone(l), nil
		}
	case KindShape:
		if s, ok := value.(*models.Shape); ok {
			if !s.Finite() {
				return nil, errors.New("shape dimensions are out of range")
			}
			return s, nil
		}
	case KindMap:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("property '%s' of type %s cannot be set from %T", spec.Name, spec.Kind, value)
}

// toFloat rejects NaN and infinities; they cannot be encoded as JSON.
func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	return f, models.IsFinite(f)
}
