package service

import (
	"fmt"

	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/cad/props"
)

// ============================================================
// Arguments
// ============================================================

// Args are the named arguments of one remote call, as decoded from JSON.
type Args map[string]any

func missing(key string) error {
	return fmt.Errorf("Missing required argument '%s'.", key)
}

func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Args) String(key, def string) string {
	return props.StringOr(a, key, def)
}

func (a Args) RequireString(key string) (string, error) {
	s := props.StringOr(a, key, "")
	if s == "" {
		return "", missing(key)
	}
	return s, nil
}

func (a Args) Float(key string, def float64) (float64, error) {
	return props.NumberOr(a, key, def)
}

func (a Args) RequireFloat(key string) (float64, error) {
	if !a.Has(key) {
		return 0, missing(key)
	}
	return props.NumberOr(a, key, 0)
}

func (a Args) Int(key string, def int) (int, error) {
	return props.IntOr(a, key, def)
}

func (a Args) Bool(key string, def bool) bool {
	return props.BoolOr(a, key, def)
}

// Map returns a nested object argument, or nil when absent.
func (a Args) Map(key string) (map[string]any, error) {
	if !a.Has(key) {
		return nil, nil
	}
	m, ok := a[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Argument '%s' must be an object.", key)
	}
	return m, nil
}

// Vector returns an {x, y, z} argument, or nil when absent.
func (a Args) Vector(key string) (*models.Vector, error) {
	m, err := a.Map(key)
	if err != nil || m == nil {
		return nil, err
	}
	v, err := props.Vector(m, models.Vector{})
	if err != nil {
		return nil, fmt.Errorf("argument '%s': %w", key, err)
	}
	return &v, nil
}

func (a Args) Floats(key string) ([]float64, error) {
	if !a.Has(key) {
		return nil, nil
	}
	f, err := props.Floats(a[key])
	if err != nil {
		return nil, fmt.Errorf("argument '%s': %w", key, err)
	}
	return f, nil
}

func (a Args) Strings(key string) ([]string, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("Argument '%s' must be a list of strings.", key)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("Argument '%s' must be a list of strings.", key)
}

// Maps returns a list-of-objects argument such as sketch geometry specs.
func (a Args) Maps(key string) ([]map[string]any, error) {
	if !a.Has(key) {
		return nil, missing(key)
	}
	switch v := a[key].(type) {
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("Argument '%s' must be a list of objects.", key)
			}
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("Argument '%s' must be a list of objects.", key)
}

func (a Args) vectorDefault(def models.Vector) (models.Vector, error) {
	return props.Vector(a, def)
}
