// Package props applies untyped property maps to document objects.
//
// Application is best effort: each property is attempted on its own and a
// failure never stops the remaining properties. Failures are logged and
// returned to the caller, which decides whether to surface them.
package props

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/common/logging"
)

// Properties whose string values name another object in the document.
var referenceProps = map[string]bool{
	"Base":    true,
	"Tool":    true,
	"Source":  true,
	"Profile": true,
}

// Apply assigns every entry of properties to obj. Keys are processed in
// sorted order so repeated calls behave identically.
func Apply(logger *slog.Logger, doc *document.Document, obj *document.Object, properties map[string]any) []error {
	if logger == nil {
		logger = logging.Nop()
	}
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := assign(doc, obj, name, properties[name]); err != nil {
			logger.Error("props.assign_failed",
				"object", obj.Name,
				"property", name,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("property '%s' assignment error: %w", name, err))
		}
	}
	return errs
}

func assign(doc *document.Document, obj *document.Object, name string, value any) error {
	if !obj.HasProperty(name) {
		return assignView(obj, name, value)
	}
	kind, _ := obj.PropertyKind(name)

	switch {
	case kind == document.KindPlacement:
		if m, ok := value.(map[string]any); ok {
			pl, err := Placement(m)
			if err != nil {
				return err
			}
			return obj.Set(name, pl)
		}
	case kind == document.KindVector:
		if m, ok := value.(map[string]any); ok {
			v, err := Vector(m, models.Vector{})
			if err != nil {
				return err
			}
			return obj.Set(name, v)
		}
	case referenceProps[name]:
		if s, ok := value.(string); ok {
			ref, err := Resolve(doc, s)
			if err != nil {
				return err
			}
			return obj.Set(name, ref)
		}
	case name == "References":
		if _, ok := value.([]any); ok {
			refs, err := ResolveReferences(doc, value)
			if err != nil {
				return err
			}
			return obj.Set(name, refs)
		}
	}
	return obj.Set(name, value)
}

// assignView handles names the object does not declare. Display attributes
// go to the view; anything else is ignored.
func assignView(obj *document.Object, name string, value any) error {
	switch name {
	case "ShapeColor":
		c, err := Color(value)
		if err != nil {
			return err
		}
		return obj.View.Set(name, c)
	case "ViewObject":
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("ViewObject must be a map, got %T", value)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var errs []error
		for _, k := range keys {
			v := m[k]
			if k == "ShapeColor" || k == "LineColor" {
				c, err := Color(v)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", k, err))
					continue
				}
				v = c
			}
			if err := obj.View.Set(k, v); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// Resolve looks an object up by name for use as a link target.
func Resolve(doc *document.Document, name string) (*document.Object, error) {
	obj, ok := doc.GetObject(name)
	if !ok {
		return nil, &caderr.ReferenceError{Name: name, Available: doc.ObjectNames()}
	}
	return obj, nil
}

// ResolveReferences turns [object, face] pairs into live links, keeping
// order. Any unknown object fails the whole list.
func ResolveReferences(doc *document.Document, value any) ([]document.LinkSub, error) {
	refs, err := FaceRefs(value)
	if err != nil {
		return nil, err
	}
	out := make([]document.LinkSub, 0, len(refs))
	for _, ref := range refs {
		obj, err := Resolve(doc, ref.Object)
		if err != nil {
			return nil, err
		}
		out = append(out, document.LinkSub{Object: obj, Sub: ref.Sub})
	}
	return out, nil
}
