package document

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Document
// ============================================================

// Document is a named, ordered container of objects. It is not safe for
// concurrent use: only the GUI goroutine may touch it.
type Document struct {
	Name string

	objects    []*Object
	index      map[string]*Object
	recomputes int
}

func newDocument(name string) *Document {
	return &Document{Name: name, index: make(map[string]*Object)}
}

// AddObject creates an object of typeID. The name is passed through
// SanitizeName and a taken name gets a numeric suffix, so callers that need
// the exact name must check ValidName and GetObject first.
func (d *Document) AddObject(typeID, name string) (*Object, error) {
	info, ok := LookupType(typeID)
	if !ok {
		return nil, fmt.Errorf("'%s' is not a document object type", typeID)
	}
	name = d.uniqueName(SanitizeName(name, typeID))
	obj := newObject(d, typeID, name, info)
	d.objects = append(d.objects, obj)
	d.index[name] = obj
	return obj, nil
}

// GetObject looks an object up by name.
func (d *Document) GetObject(name string) (*Object, bool) {
	obj, ok := d.index[name]
	return obj, ok
}

// Objects returns the objects in insertion order.
func (d *Document) Objects() []*Object {
	out := make([]*Object, len(d.objects))
	copy(out, d.objects)
	return out
}

// ObjectNames lists object names in insertion order.
func (d *Document) ObjectNames() []string {
	names := make([]string, len(d.objects))
	for i, o := range d.objects {
		names[i] = o.Name
	}
	return names
}

// ObjectLabels lists object labels in insertion order.
func (d *Document) ObjectLabels() []string {
	labels := make([]string, len(d.objects))
	for i, o := range d.objects {
		labels[i] = o.Label()
	}
	return labels
}

// RemoveObject deletes the named object and drops links pointing at it.
func (d *Document) RemoveObject(name string) error {
	obj, ok := d.index[name]
	if !ok {
		return fmt.Errorf("no object named '%s' in document '%s'", name, d.Name)
	}
	delete(d.index, name)
	for i, o := range d.objects {
		if o == obj {
			d.objects = append(d.objects[:i], d.objects[i+1:]...)
			break
		}
	}
	for _, o := range d.objects {
		o.unlink(obj)
	}
	return nil
}

// Recompute re-evaluates every object in dependency order. Per-object
// failures are recorded on the object and returned joined; evaluation of the
// remaining objects continues. Objects caught in a link cycle are not
// executed.
func (d *Document) Recompute() error {
	d.recomputes++
	order, blocked := d.topoOrder()
	var errs []error
	for _, obj := range d.objects {
		if err, ok := blocked[obj]; ok {
			obj.err = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", obj.Name, err))
		}
	}
	for _, obj := range order {
		obj.err = ""
		info, _ := LookupType(obj.TypeID)
		if info.Execute == nil {
			continue
		}
		if err := info.Execute(obj); err != nil {
			obj.err = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", obj.Name, err))
		}
	}
	return errors.Join(errs...)
}

// RecomputeCount reports how many times Recompute has run.
func (d *Document) RecomputeCount() int {
	return d.recomputes
}

// topoOrder sorts objects so links come before their users. Objects on a
// link cycle, or depending on one, are left out and returned in blocked.
func (d *Document) topoOrder() (order []*Object, blocked map[*Object]error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Object]int, len(d.objects))
	order = make([]*Object, 0, len(d.objects))
	blocked = make(map[*Object]error)

	var visit func(o *Object) bool
	visit = func(o *Object) bool {
		switch state[o] {
		case visiting:
			return false
		case done:
			return blocked[o] == nil
		}
		state[o] = visiting
		ok := true
		for _, dep := range o.dependencies() {
			if dep.doc != d {
				continue
			}
			if !visit(dep) {
				ok = false
			}
		}
		state[o] = done
		if !ok {
			blocked[o] = fmt.Errorf("cyclic dependency detected at '%s'", o.Name)
			return false
		}
		order = append(order, o)
		return true
	}

	for _, o := range d.objects {
		visit(o)
	}
	return order, blocked
}

func (d *Document) uniqueName(name string) string {
	if _, taken := d.index[name]; !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%03d", name, i)
		if _, taken := d.index[candidate]; !taken {
			return candidate
		}
	}
}

// ValidName reports whether name survives SanitizeName unchanged.
func ValidName(name string) bool {
	return name != "" && SanitizeName(name, "") == name
}

// SanitizeName maps name onto the identifier alphabet: letters, digits and
// underscores, not starting with a digit. An empty name falls back to the
// last component of typeID.
func SanitizeName(name, typeID string) string {
	if name == "" {
		if idx := strings.LastIndex(typeID, "::"); idx >= 0 {
			name = typeID[idx+2:]
		} else {
			name = typeID
		}
	}
	var b strings.Builder
	for i, r := range name {
		valid := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid || (i == 0 && r >= '0' && r <= '9') {
			b.WriteRune('_')
			if valid {
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (o *Object) unlink(target *Object) {
	for _, name := range o.order {
		p := o.props[name]
		switch v := p.value.(type) {
		case *Object:
			if v == target {
				p.value = (*Object)(nil)
			}
		case []*Object:
			kept := v[:0:0]
			for _, l := range v {
				if l != target {
					kept = append(kept, l)
				}
			}
			p.value = kept
		case []LinkSub:
			kept := v[:0:0]
			for _, l := range v {
				if l.Object != target {
					kept = append(kept, l)
				}
			}
			p.value = kept
		}
	}
}
