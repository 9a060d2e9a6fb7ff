package document

import (
	"errors"
	"fmt"
	"sort"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Type registry
// ============================================================

// TypeInfo describes a creatable object type: its declared properties and
// how recompute derives its shape.
type TypeInfo struct {
	Props   []PropertySpec
	Sketch  bool
	Execute func(o *Object) error
}

var (
	placementProp = PropertySpec{Name: "Placement", Kind: KindPlacement}
	shapeProp     = PropertySpec{Name: "Shape", Kind: KindShape}
	groupProp     = PropertySpec{Name: "Group", Kind: KindLinkList}
	refsProp      = PropertySpec{Name: "References", Kind: KindLinkSubList}
)

func withShape(props ...PropertySpec) []PropertySpec {
	return append([]PropertySpec{placementProp, shapeProp}, props...)
}

var typeRegistry = map[string]TypeInfo{
	"App::DocumentObjectGroup": {Props: []PropertySpec{groupProp}},
	"App::FeaturePython":       {Execute: executeProxy},

	"Part::Feature":       {Props: withShape()},
	"Part::FeaturePython": {Props: withShape(), Execute: executeProxy},
	"Part::Box": {
		Props: withShape(
			PropertySpec{Name: "Length", Kind: KindFloat, Default: 10.0},
			PropertySpec{Name: "Width", Kind: KindFloat, Default: 10.0},
			PropertySpec{Name: "Height", Kind: KindFloat, Default: 10.0},
		),
		Execute: executeBox,
	},
	"Part::Cylinder": {
		Props: withShape(
			PropertySpec{Name: "Radius", Kind: KindFloat, Default: 2.0},
			PropertySpec{Name: "Height", Kind: KindFloat, Default: 10.0},
			PropertySpec{Name: "Angle", Kind: KindFloat, Default: 360.0},
		),
		Execute: executeCylinder,
	},
	"Part::Sphere": {
		Props:   withShape(PropertySpec{Name: "Radius", Kind: KindFloat, Default: 5.0}),
		Execute: executeSphere,
	},
	"Part::Cone": {
		Props: withShape(
			PropertySpec{Name: "Radius1", Kind: KindFloat, Default: 2.0},
			PropertySpec{Name: "Radius2", Kind: KindFloat, Default: 4.0},
			PropertySpec{Name: "Height", Kind: KindFloat, Default: 10.0},
		),
		Execute: executeCone,
	},
	"Part::Cut":    booleanType("cut"),
	"Part::Fuse":   booleanType("fuse"),
	"Part::Common": booleanType("common"),
	"Part::Extrusion": {
		Props: withShape(
			PropertySpec{Name: "Base", Kind: KindLink},
			PropertySpec{Name: "Dir", Kind: KindVector, Default: models.Vector{Z: 1}},
			PropertySpec{Name: "LengthFwd", Kind: KindFloat, Default: 10.0},
			PropertySpec{Name: "Solid", Kind: KindBool, Default: true},
		),
		Execute: executeExtrusion,
	},

	"Sketcher::SketchObject": {
		Props: withShape(
			PropertySpec{Name: "MapMode", Kind: KindString, Default: "Deactivated"},
		),
		Sketch:  true,
		Execute: executeSketch,
	},

	"PartDesign::Body": {
		Props:   withShape(groupProp, PropertySpec{Name: "Tip", Kind: KindLink}),
		Execute: executeBody,
	},
	"PartDesign::Pad": {
		Props: withShape(
			PropertySpec{Name: "Profile", Kind: KindLink},
			PropertySpec{Name: "Length", Kind: KindFloat, Default: 10.0},
			PropertySpec{Name: "Reversed", Kind: KindBool},
			PropertySpec{Name: "Midplane", Kind: KindBool},
			PropertySpec{Name: "Type", Kind: KindEnum, Enum: []string{"Length", "ThroughAll", "UpToFirst", "UpToFace", "TwoLengths"}},
		),
		Execute: executePad,
	},

	"Fem::FemAnalysis": {Props: []PropertySpec{groupProp}},
	"Fem::MaterialCommon": {
		Props: []PropertySpec{
			{Name: "Material", Kind: KindMap},
			{Name: "Category", Kind: KindEnum, Enum: []string{"Solid", "Fluid"}},
			refsProp,
		},
	},
	"Fem::ConstraintFixed": {
		Props: []PropertySpec{refsProp, {Name: "Scale", Kind: KindInt, Default: 1}},
	},
	"Fem::ConstraintForce": {
		Props: []PropertySpec{
			refsProp,
			{Name: "Force", Kind: KindFloat, Default: 1.0},
			{Name: "Reversed", Kind: KindBool},
			{Name: "Scale", Kind: KindInt, Default: 1},
		},
	},
	"Fem::ConstraintPressure": {
		Props: []PropertySpec{
			refsProp,
			{Name: "Pressure", Kind: KindFloat, Default: 1.0},
			{Name: "Reversed", Kind: KindBool},
		},
	},
	"Fem::FemMeshGmsh": {
		Props: []PropertySpec{
			{Name: "Part", Kind: KindLink},
			{Name: "CharacteristicLengthMax", Kind: KindFloat},
			{Name: "CharacteristicLengthMin", Kind: KindFloat},
			{Name: "ElementOrder", Kind: KindEnum, Enum: []string{"2nd", "1st"}},
			{Name: "ElementDimension", Kind: KindEnum, Enum: []string{"From Shape", "1D", "2D", "3D"}},
			{Name: "NodeCount", Kind: KindInt},
			{Name: "ElementCount", Kind: KindInt},
		},
	},
	"Fem::FemSolverObjectPython": {
		Props: []PropertySpec{
			{Name: "SolverType", Kind: KindString, Default: "CalculiX"},
			{Name: "AnalysisType", Kind: KindEnum, Enum: []string{"static", "frequency", "thermomech", "check", "buckling"}},
			{Name: "GeometricalNonlinearity", Kind: KindEnum, Enum: []string{"linear", "nonlinear"}},
		},
	},
}

// LookupType returns the registered type info for a type tag.
func LookupType(typeID string) (TypeInfo, bool) {
	info, ok := typeRegistry[typeID]
	return info, ok
}

// TypeIDs lists every creatable type tag, sorted.
func TypeIDs() []string {
	ids := make([]string, 0, len(typeRegistry))
	for id := range typeRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ============================================================
// Shape builders
// ============================================================

func executeBox(o *Object) error {
	l, w, h := o.Float("Length"), o.Float("Width"), o.Float("Height")
	if l <= 0 || w <= 0 || h <= 0 {
		return errors.New("width, length and height of box too small")
	}
	return o.Set("Shape", models.BoxShape(models.Vector{}, l, w, h))
}

func executeCylinder(o *Object) error {
	r, h := o.Float("Radius"), o.Float("Height")
	if r <= 0 || h <= 0 {
		return errors.New("radius and height of cylinder too small")
	}
	return o.Set("Shape", models.CylinderShape(models.Vector{}, r, h))
}

func executeSphere(o *Object) error {
	r := o.Float("Radius")
	if r <= 0 {
		return errors.New("radius of sphere too small")
	}
	return o.Set("Shape", models.SphereShape(models.Vector{}, r))
}

func executeCone(o *Object) error {
	r1, r2, h := o.Float("Radius1"), o.Float("Radius2"), o.Float("Height")
	if h <= 0 || r1 < 0 || r2 < 0 || (r1 == 0 && r2 == 0) {
		return errors.New("invalid cone dimensions")
	}
	return o.Set("Shape", models.ConeShape(models.Vector{}, r1, r2, h))
}

func booleanType(op string) TypeInfo {
	return TypeInfo{
		Props: withShape(
			PropertySpec{Name: "Base", Kind: KindLink},
			PropertySpec{Name: "Tool", Kind: KindLink},
			PropertySpec{Name: "Refine", Kind: KindBool},
		),
		Execute: func(o *Object) error {
			base, tool := o.Link("Base"), o.Link("Tool")
			if base == nil || tool == nil {
				return errors.New("base and tool must be set")
			}
			result, err := Boolean(op, base.GlobalShape(), tool.GlobalShape())
			if err != nil {
				return err
			}
			return o.Set("Shape", result)
		},
	}
}

// Boolean applies a boolean operator to two global shapes.
func Boolean(op string, base, tool *models.Shape) (*models.Shape, error) {
	if base.IsNull() || tool.IsNull() {
		return nil, errors.New("boolean operation on a null shape")
	}
	switch op {
	case "cut":
		return base.Cut(tool), nil
	case "fuse":
		return base.Fuse(tool), nil
	case "common":
		return base.Common(tool), nil
	}
	return nil, fmt.Errorf("unknown boolean operator '%s'", op)
}

func executeExtrusion(o *Object) error {
	base := o.Link("Base")
	if base == nil {
		return errors.New("no base object to extrude")
	}
	src := base.GlobalShape()
	if src.IsNull() {
		return errors.New("base shape is null")
	}
	v, _ := o.Get("Dir")
	dir := v.(models.Vector)
	if dir.Length() == 0 {
		return errors.New("extrusion direction is zero")
	}
	dir = dir.Scale(o.Float("LengthFwd") / dir.Length())
	size := src.Size()
	return o.Set("Shape", models.PrismShape(src.Min, src.Max, size.X*size.Y, dir))
}

func executeSketch(o *Object) error {
	lo, hi, ok := o.sketch.bounds()
	if !ok {
		return o.Set("Shape", (*models.Shape)(nil))
	}
	return o.Set("Shape", &models.Shape{Kind: "wire", Min: lo, Max: hi})
}

func executePad(o *Object) error {
	profile := o.Link("Profile")
	if profile == nil {
		return errors.New("pad has no profile")
	}
	sk, ok := profile.Sketch()
	if !ok {
		return fmt.Errorf("profile '%s' is not a sketch", profile.Name)
	}
	lo, hi, ok := sk.bounds()
	if !ok {
		return errors.New("profile sketch has no geometry")
	}
	length := o.Float("Length")
	if length <= 0 {
		return errors.New("pad length must be positive")
	}
	dir := models.Vector{Z: length}
	if o.Bool("Reversed") {
		dir = dir.Scale(-1)
	}
	if o.Bool("Midplane") {
		shift := dir.Scale(-0.5)
		lo, hi = lo.Add(shift), hi.Add(shift)
	}
	prism := models.PrismShape(lo, hi, sk.profileArea(), dir)
	if pl, ok := profile.Placement(); ok {
		prism = prism.Moved(pl)
	}
	return o.Set("Shape", prism)
}

func executeBody(o *Object) error {
	var tip *Object
	for _, member := range o.Links("Group") {
		if member.TypeID == "Sketcher::SketchObject" {
			continue
		}
		if !member.Shape().IsNull() {
			tip = member
		}
	}
	if tip == nil {
		return o.Set("Shape", (*models.Shape)(nil))
	}
	if err := o.Set("Tip", tip); err != nil {
		return err
	}
	return o.Set("Shape", tip.Shape())
}

func executeProxy(o *Object) error {
	if ex, ok := o.Proxy.(Executor); ok {
		return ex.Execute(o)
	}
	return nil
}
