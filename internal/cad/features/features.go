// Package features implements the compound modelling commands built on top
// of dispatch and the sketch builder.
package features

import (
	"fmt"
	"log/slog"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/cad/sketch"
	"cad-bridge/internal/common/logging"
)

type Commands struct {
	dispatch *dispatch.Dispatcher
	logger   *slog.Logger
}

func New(d *dispatch.Dispatcher, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Commands{dispatch: d, logger: logger}
}

// ============================================================
// Boolean operations
// ============================================================

var booleanOps = []string{"cut", "fuse", "common"}

type BooleanResult struct {
	ResultObject string
	Message      string
}

// BooleanOperation combines two objects into a new Part::Feature carrying
// the resulting shape. Unless keep is set the sources are hidden.
func (c *Commands) BooleanOperation(docName, op, baseName, toolName, resultName string, keep bool) (BooleanResult, error) {
	doc, err := c.dispatch.Document(docName)
	if err != nil {
		return BooleanResult{}, err
	}
	base, ok := doc.GetObject(baseName)
	if !ok {
		return BooleanResult{}, caderr.ObjectNotFound("Base object", baseName, doc.Name, doc.ObjectLabels())
	}
	tool, ok := doc.GetObject(toolName)
	if !ok {
		return BooleanResult{}, caderr.ObjectNotFound("Tool object", toolName, doc.Name, doc.ObjectLabels())
	}
	op = strings.ToLower(op)
	if !contains(booleanOps, op) {
		return BooleanResult{}, caderr.Invalid("operation", op, booleanOps...)
	}

	shape, err := document.Boolean(op, base.GlobalShape(), tool.GlobalShape())
	if err != nil {
		return BooleanResult{}, fmt.Errorf("boolean %s: %w", op, err)
	}
	if resultName == "" {
		resultName = fmt.Sprintf("%s_%s_%s", strings.ToUpper(op[:1])+op[1:], baseName, toolName)
	}
	if err := dispatch.CheckName(doc, resultName); err != nil {
		return BooleanResult{}, err
	}
	result, err := doc.AddObject("Part::Feature", resultName)
	if err != nil {
		return BooleanResult{}, err
	}
	if err := result.Set("Shape", shape); err != nil {
		return BooleanResult{}, err
	}
	result.View.Visibility = true
	if !keep {
		base.View.Visibility = false
		tool.View.Visibility = false
	}
	c.dispatch.Recompute(doc)

	c.logger.Info("features.boolean_completed", "operation", op, "result", result.Name)
	return BooleanResult{
		ResultObject: result.Name,
		Message:      fmt.Sprintf("Boolean %s completed successfully", op),
	}, nil
}

// ============================================================
// Sketches & pads
// ============================================================

var sketchPlanes = map[string]models.Rotation{
	"XY": models.IdentityRotation(),
	"XZ": {Axis: models.Vector{X: 1}, Angle: 90},
	"YZ": {Axis: models.Vector{Y: 1}, Angle: -90},
}

// CreateSketch adds a sketch on a principal plane. A named body is created
// when it does not exist yet and receives the sketch.
func (c *Commands) CreateSketch(docName, name, plane string, origin models.Vector, bodyName string) (string, error) {
	doc, err := c.dispatch.Document(docName)
	if err != nil {
		return "", err
	}
	if plane == "" {
		plane = "XY"
	}
	rot, ok := sketchPlanes[strings.ToUpper(plane)]
	if !ok {
		return "", caderr.Invalid("plane", plane, "XY", "XZ", "YZ")
	}

	if err := checkName(doc, name); err != nil {
		return "", err
	}

	var body *document.Object
	if bodyName != "" {
		if body, ok = doc.GetObject(bodyName); !ok {
			if err := dispatch.CheckName(doc, bodyName); err != nil {
				return "", err
			}
			if body, err = doc.AddObject("PartDesign::Body", bodyName); err != nil {
				return "", err
			}
			body.View.Visibility = true
			c.logger.Info("features.body_created", "body", body.Name)
		} else if !body.HasProperty("Group") {
			return "", &caderr.ValidationError{Field: "body", Value: bodyName, Detail: "Object is not a body."}
		}
	}

	sk, err := doc.AddObject("Sketcher::SketchObject", name)
	if err != nil {
		return "", err
	}
	if body != nil {
		if err := body.AddToGroup(sk); err != nil {
			return "", err
		}
	}
	if err := sk.Set("Placement", models.NewPlacement(origin, rot)); err != nil {
		return "", err
	}
	sk.View.Visibility = true
	c.dispatch.Recompute(doc)

	c.logger.Info("features.sketch_created", "sketch", sk.Name, "plane", strings.ToUpper(plane))
	return sk.Name, nil
}

type PadOptions struct {
	Length    float64
	Symmetric bool
	Reversed  bool
	BodyName  string
}

// CreateExtrusion pads a sketch. Without an explicit body the body holding
// the sketch, if any, receives the pad. The sketch is hidden afterwards.
func (c *Commands) CreateExtrusion(docName, name, sketchName string, opts PadOptions) (string, error) {
	doc, err := c.dispatch.Document(docName)
	if err != nil {
		return "", err
	}
	sk, _, err := sketch.Lookup(doc, sketchName)
	if err != nil {
		return "", err
	}

	if err := checkName(doc, name); err != nil {
		return "", err
	}

	var body *document.Object
	if opts.BodyName != "" {
		b, ok := doc.GetObject(opts.BodyName)
		if !ok {
			return "", caderr.ObjectNotFound("Body", opts.BodyName, doc.Name, objectsOfType(doc, "PartDesign::Body"))
		}
		body = b
	} else {
		for _, o := range doc.Objects() {
			if o.TypeID == "PartDesign::Body" && o.InGroup(sk) {
				body = o
				break
			}
		}
	}

	pad, err := doc.AddObject("PartDesign::Pad", name)
	if err != nil {
		return "", err
	}
	if body != nil {
		if err := body.AddToGroup(pad); err != nil {
			return "", err
		}
	}
	for prop, value := range map[string]any{
		"Profile":  sk,
		"Length":   opts.Length,
		"Reversed": opts.Reversed,
		"Midplane": opts.Symmetric,
	} {
		if err := pad.Set(prop, value); err != nil {
			return "", err
		}
	}
	pad.View.Visibility = true
	sk.View.Visibility = false
	c.dispatch.Recompute(doc)

	if msg := pad.Error(); msg != "" {
		c.logger.Warn("features.pad_invalid", "pad", pad.Name, "error", msg)
	}
	c.logger.Info("features.extrusion_created", "pad", pad.Name, "sketch", sk.Name, "length", opts.Length)
	return pad.Name, nil
}

// ============================================================
// Helpers
// ============================================================

func objectsOfType(doc *document.Document, typeID string) []string {
	var names []string
	for _, o := range doc.Objects() {
		if o.TypeID == typeID {
			names = append(names, o.Name)
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// checkName is dispatch.CheckName for optional names; an empty name is
// auto-assigned by the document.
func checkName(doc *document.Document, name string) error {
	if name == "" {
		return nil
	}
	return dispatch.CheckName(doc, name)
}
