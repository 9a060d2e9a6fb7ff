package dispatch

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/props"
)

// ============================================================
// Generic
// ============================================================

// genericStrategy creates a bare object of the requested type and makes it
// visible; objects created without a GUI start hidden.
type genericStrategy struct{}

func (genericStrategy) Name() string { return "generic" }

func (genericStrategy) Match(Request) bool { return true }

func (genericStrategy) Create(env *Env, req Request) (Outcome, error) {
	obj, err := env.Doc.AddObject(req.Type, req.Name)
	if err != nil {
		return Outcome{}, &caderr.ValidationError{Field: "object type", Value: req.Type, Detail: err.Error()}
	}
	errs := props.Apply(env.Logger, env.Doc, obj, req.Properties)
	obj.View.Visibility = true
	return Outcome{Object: obj, PropertyErrors: errs}, nil
}

// ============================================================
// Mesh generation
// ============================================================

const meshType = "Fem::FemMeshGmsh"

type meshStrategy struct{}

func (meshStrategy) Name() string { return "mesh" }

func (meshStrategy) Match(req Request) bool {
	return req.Type == meshType && req.Analysis != ""
}

func (meshStrategy) Create(env *Env, req Request) (Outcome, error) {
	doc := env.Doc
	analysis, err := lookupAnalysis(doc, req.Analysis)
	if err != nil {
		return Outcome{}, err
	}
	partName, ok := req.Properties["Part"]
	if !ok {
		return Outcome{}, errors.New("'Part' property not found in properties")
	}
	name, _ := partName.(string)
	part, ok := doc.GetObject(name)
	if !ok {
		return Outcome{}, &caderr.ReferenceError{Name: fmt.Sprint(partName), Available: doc.ObjectLabels()}
	}

	mesh, err := doc.AddObject(meshType, req.Name)
	if err != nil {
		return Outcome{}, err
	}
	if err := analysis.AddToGroup(mesh); err != nil {
		return Outcome{}, err
	}
	if err := mesh.Set("Part", part); err != nil {
		return Outcome{}, err
	}
	rest := maps.Clone(req.Properties)
	delete(rest, "Part")
	errs := props.Apply(env.Logger, doc, mesh, rest)

	if err := doc.Recompute(); err != nil {
		env.Logger.Warn("dispatch.recompute_failed", "document", doc.Name, "error", err.Error())
	}
	if env.App.Mesher == nil {
		return Outcome{}, &caderr.CapabilityError{Capability: "Mesher", Guidance: "No mesh generator is configured."}
	}
	if err := env.App.Mesher.Generate(mesh); err != nil {
		return Outcome{}, fmt.Errorf("mesh generation: %w", err)
	}
	nodes, _ := mesh.Get("NodeCount")
	env.Logger.Info("dispatch.mesh_generated", "object", mesh.Name, "nodes", nodes)
	return Outcome{Object: mesh, PropertyErrors: errs}, nil
}

// ============================================================
// FEM family
// ============================================================

type femMaker func(doc *document.Document, name string) (*document.Object, error)

// femOverrides maps FEM subtypes whose maker does not follow the
// "make" + subtype convention.
var femOverrides = map[string]string{
	"MaterialCommon":        "makeMaterialSolid",
	"AnalysisPython":        "makeAnalysis",
	"FemMeshGmsh":           "makeMeshGmsh",
	"FemSolverObjectPython": "makeSolverCalculiXCcxTools",
}

var femMakers = map[string]femMaker{
	"makeAnalysis":               typedMaker("Fem::FemAnalysis", nil),
	"makeMaterialSolid":          typedMaker("Fem::MaterialCommon", initSolidMaterial),
	"makeMeshGmsh":               typedMaker(meshType, nil),
	"makeSolverCalculiXCcxTools": typedMaker("Fem::FemSolverObjectPython", nil),
	"makeConstraintFixed":        typedMaker("Fem::ConstraintFixed", nil),
	"makeConstraintForce":        typedMaker("Fem::ConstraintForce", nil),
	"makeConstraintPressure":     typedMaker("Fem::ConstraintPressure", nil),
}

func typedMaker(typeID string, init func(*document.Object) error) femMaker {
	return func(doc *document.Document, name string) (*document.Object, error) {
		obj, err := doc.AddObject(typeID, name)
		if err != nil {
			return nil, err
		}
		if init != nil {
			if err := init(obj); err != nil {
				return obj, err
			}
		}
		return obj, nil
	}
}

func initSolidMaterial(obj *document.Object) error {
	if err := obj.Set("Category", "Solid"); err != nil {
		return err
	}
	return obj.Set("Material", map[string]any{
		"Name":          "Steel-Generic",
		"YoungsModulus": "210000 MPa",
		"PoissonRatio":  "0.30",
		"Density":       "7900 kg/m^3",
	})
}

// FEMTypes lists the FEM type tags the FEM strategy can create.
func FEMTypes() []string {
	inverse := make(map[string]string, len(femOverrides))
	for sub, maker := range femOverrides {
		inverse[maker] = sub
	}
	types := make([]string, 0, len(femMakers))
	for maker := range femMakers {
		sub, ok := inverse[maker]
		if !ok {
			sub = strings.TrimPrefix(maker, "make")
		}
		types = append(types, "Fem::"+sub)
	}
	sort.Strings(types)
	return types
}

type femStrategy struct{}

func (femStrategy) Name() string { return "fem" }

func (femStrategy) Match(req Request) bool {
	return strings.HasPrefix(req.Type, "Fem::")
}

func (femStrategy) Create(env *Env, req Request) (Outcome, error) {
	doc := env.Doc
	subtype := strings.TrimPrefix(req.Type, "Fem::")
	method, ok := femOverrides[subtype]
	if !ok {
		method = "make" + subtype
	}
	maker, ok := femMakers[method]
	if !ok {
		return Outcome{}, &caderr.ValidationError{
			Field:   "FEM type",
			Value:   req.Type,
			Allowed: FEMTypes(),
			Detail:  fmt.Sprintf("No creation method '%s' found.", method),
		}
	}

	var analysis *document.Object
	if req.Analysis != "" && subtype != "AnalysisPython" {
		a, err := lookupAnalysis(doc, req.Analysis)
		if err != nil {
			return Outcome{}, err
		}
		analysis = a
	}

	obj, err := maker(doc, req.Name)
	if err != nil {
		return Outcome{}, err
	}
	errs := props.Apply(env.Logger, doc, obj, req.Properties)
	if analysis != nil && obj.TypeID != "Fem::FemAnalysis" {
		if err := analysis.AddToGroup(obj); err != nil {
			return Outcome{}, err
		}
	}
	env.Logger.Info("dispatch.fem_created", "object", obj.Name, "method", method)
	return Outcome{Object: obj, PropertyErrors: errs}, nil
}

func lookupAnalysis(doc *document.Document, name string) (*document.Object, error) {
	obj, ok := doc.GetObject(name)
	if !ok || obj.TypeID != "Fem::FemAnalysis" {
		var analyses []string
		for _, o := range doc.Objects() {
			if o.TypeID == "Fem::FemAnalysis" {
				analyses = append(analyses, o.Name)
			}
		}
		return nil, caderr.ObjectNotFound("Analysis", name, doc.Name, analyses)
	}
	return obj, nil
}

// ============================================================
// Fasteners
// ============================================================

// FastenerPrefix tags fastener requests: "Fasteners::ISO4017".
const FastenerPrefix = "Fasteners::"

type fastenerStrategy struct{}

func (fastenerStrategy) Name() string { return "fastener" }

func (fastenerStrategy) Match(req Request) bool {
	return strings.HasPrefix(req.Type, FastenerPrefix)
}

func (fastenerStrategy) Create(env *Env, req Request) (Outcome, error) {
	app, doc := env.App, env.Doc
	if !app.HasWorkbench(document.FastenersWorkbench) || app.Fasteners == nil {
		return Outcome{}, &caderr.CapabilityError{
			Capability: document.FastenersWorkbench,
			Guidance:   "Please install the Fasteners Workbench add-on.",
			Available:  app.ListWorkbenches(),
		}
	}
	if err := app.ActivateWorkbench(document.FastenersWorkbench); err != nil {
		return Outcome{}, err
	}

	fastenerType := strings.TrimPrefix(req.Type, FastenerPrefix)
	if !slices.Contains(app.Fasteners.Types(), fastenerType) {
		return Outcome{}, caderr.Invalid("fastener type", fastenerType, app.Fasteners.Types()...)
	}

	rest := maps.Clone(req.Properties)
	var attach *document.Object
	if name := props.StringOr(rest, "AttachTo", ""); name != "" {
		obj, ok := doc.GetObject(name)
		if !ok {
			return Outcome{}, caderr.ObjectNotFound("Attach object", name, doc.Name, doc.ObjectLabels())
		}
		attach = obj
	}
	diameter := props.StringOr(rest, "Diameter", "M4")
	length := props.StringOr(rest, "Length", "10")
	for _, key := range []string{"AttachTo", "Diameter", "Length"} {
		delete(rest, key)
	}

	obj, err := doc.AddObject("Part::FeaturePython", req.Name)
	if err != nil {
		return Outcome{}, err
	}
	if err := app.Fasteners.Build(obj, fastenerType, attach, diameter, length); err != nil {
		return Outcome{}, err
	}
	errs := props.Apply(env.Logger, doc, obj, rest)
	obj.View.Visibility = true
	return Outcome{Object: obj, PropertyErrors: errs}, nil
}
