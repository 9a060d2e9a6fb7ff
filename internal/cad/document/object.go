package document

import (
	"fmt"
	"slices"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Object
// ============================================================

// Executor is implemented by proxies attached to python-feature objects
// (fasteners). It runs during recompute.
type Executor interface {
	Execute(o *Object) error
}

type Object struct {
	Name   string
	TypeID string
	View   *ViewObject
	// Proxy holds the payload of a feature-python object.
	Proxy any

	doc    *Document
	props  map[string]*property
	order  []string
	sketch *Sketch
	err    string
}

func newObject(doc *Document, typeID, name string, info TypeInfo) *Object {
	o := &Object{
		Name:   name,
		TypeID: typeID,
		View:   newViewObject(),
		doc:    doc,
		props:  make(map[string]*property),
	}
	o.AddProperty(PropertySpec{Name: "Label", Kind: KindString, Default: name})
	for _, spec := range info.Props {
		o.AddProperty(spec)
	}
	if info.Sketch {
		o.sketch = &Sketch{}
	}
	return o
}

// AddProperty declares a property on the object (dynamic properties included).
// Declaring an existing name is a no-op.
func (o *Object) AddProperty(spec PropertySpec) {
	if _, ok := o.props[spec.Name]; ok {
		return
	}
	o.props[spec.Name] = &property{spec: spec, value: defaultValue(spec)}
	o.order = append(o.order, spec.Name)
}

func (o *Object) Document() *Document {
	return o.doc
}

func (o *Object) Label() string {
	if s, ok := o.props["Label"].value.(string); ok {
		return s
	}
	return o.Name
}

// HasProperty reports whether the object declares the property name.
func (o *Object) HasProperty(name string) bool {
	_, ok := o.props[name]
	return ok
}

// PropertiesList returns declared property names in declaration order.
func (o *Object) PropertiesList() []string {
	return slices.Clone(o.order)
}

func (o *Object) PropertyKind(name string) (Kind, bool) {
	p, ok := o.props[name]
	if !ok {
		return 0, false
	}
	return p.spec.Kind, true
}

func (o *Object) Get(name string) (any, bool) {
	p, ok := o.props[name]
	if !ok {
		return nil, false
	}
	return p.value, true
}

// Set assigns value after coercing it to the declared kind.
func (o *Object) Set(name string, value any) error {
	p, ok := o.props[name]
	if !ok {
		return fmt.Errorf("'%s' object has no attribute '%s'", o.TypeID, name)
	}
	v, err := coerce(p.spec, value)
	if err != nil {
		return err
	}
	for _, target := range linkedObjects(v) {
		if target == o || target.dependsOn(o) {
			return fmt.Errorf("linking '%s' to '%s' would create a cyclic dependency", o.Name, target.Name)
		}
	}
	p.value = v
	return nil
}

func (o *Object) Float(name string) float64 {
	f, _ := o.props[name].valueOr(0.0).(float64)
	return f
}

func (o *Object) Bool(name string) bool {
	b, _ := o.props[name].valueOr(false).(bool)
	return b
}

func (o *Object) Link(name string) *Object {
	l, _ := o.props[name].valueOr((*Object)(nil)).(*Object)
	return l
}

func (o *Object) Links(name string) []*Object {
	l, _ := o.props[name].valueOr([]*Object(nil)).([]*Object)
	return l
}

func (o *Object) Placement() (models.Placement, bool) {
	p, ok := o.props["Placement"]
	if !ok {
		return models.Placement{}, false
	}
	pl, _ := p.value.(models.Placement)
	return pl, true
}

// Shape returns the object's local shape (before its own placement).
func (o *Object) Shape() *models.Shape {
	s, _ := o.props["Shape"].valueOr((*models.Shape)(nil)).(*models.Shape)
	return s
}

// GlobalShape returns the shape moved by the object's placement.
func (o *Object) GlobalShape() *models.Shape {
	s := o.Shape()
	if s.IsNull() {
		return s
	}
	if pl, ok := o.Placement(); ok {
		return s.Moved(pl)
	}
	return s
}

// Sketch returns the sketch payload for sketch objects.
func (o *Object) Sketch() (*Sketch, bool) {
	return o.sketch, o.sketch != nil
}

// AddToGroup appends child to the object's Group link list.
func (o *Object) AddToGroup(child *Object) error {
	if !o.HasProperty("Group") {
		return fmt.Errorf("'%s' object has no attribute 'Group'", o.TypeID)
	}
	group := o.Links("Group")
	if slices.Contains(group, child) {
		return nil
	}
	return o.Set("Group", append(slices.Clone(group), child))
}

// InGroup reports whether child is a member of the object's Group.
func (o *Object) InGroup(child *Object) bool {
	return slices.Contains(o.Links("Group"), child)
}

// Error returns the message of the last failed recompute, if any.
func (o *Object) Error() string {
	return o.err
}

// dependencies lists every object this one links to.
func (o *Object) dependencies() []*Object {
	var deps []*Object
	for _, name := range o.order {
		deps = append(deps, linkedObjects(o.props[name].value)...)
	}
	return deps
}

// dependsOn reports whether target is reachable through o's links.
func (o *Object) dependsOn(target *Object) bool {
	seen := map[*Object]bool{}
	var walk func(cur *Object) bool
	walk = func(cur *Object) bool {
		if seen[cur] {
			return false
		}
		seen[cur] = true
		for _, dep := range cur.dependencies() {
			if dep == target || walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(o)
}

func linkedObjects(value any) []*Object {
	switch v := value.(type) {
	case *Object:
		if v != nil {
			return []*Object{v}
		}
	case []*Object:
		return v
	case []LinkSub:
		out := make([]*Object, 0, len(v))
		for _, ls := range v {
			if ls.Object != nil {
				out = append(out, ls.Object)
			}
		}
		return out
	}
	return nil
}

func (p *property) valueOr(def any) any {
	if p == nil || p.value == nil {
		return def
	}
	return p.value
}

func defaultValue(spec PropertySpec) any {
	if spec.Default != nil {
		return spec.Default
	}
	switch spec.Kind {
	case KindFloat:
		return 0.0
	case KindInt:
		return 0
	case KindBool:
		return false
	case KindString:
		return ""
	case KindEnum:
		if len(spec.Enum) > 0 {
			return spec.Enum[0]
		}
		return ""
	case KindVector:
		return models.Vector{}
	case KindPlacement:
		return models.NewPlacement(models.Vector{}, models.IdentityRotation())
	case KindLink:
		return (*Object)(nil)
	case KindLinkList:
		return []*Object{}
	case KindLinkSubList:
		return []LinkSub{}
	case KindShape:
		return (*models.Shape)(nil)
	case KindMap:
		return map[string]any{}
	}
	return nil
}
