// Package sketch turns declarative geometry and constraint lists into
// insertions on a sketch object.
//
// Both entry points process their specs in order and recompute the document
// once at the end of the batch. Nothing is rolled back: when a spec fails,
// the elements inserted before it stay in the sketch.
package sketch

import (
	"log/slog"
	"math"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/cad/props"
	"cad-bridge/internal/common/logging"
)

const sketchType = "Sketcher::SketchObject"

// GeometryKinds lists the accepted geometry spec types.
var GeometryKinds = []string{"line", "rectangle", "circle", "arc", "path"}

type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Builder{logger: logger}
}

// Lookup resolves a sketch object by name.
func Lookup(doc *document.Document, name string) (*document.Object, *document.Sketch, error) {
	obj, ok := doc.GetObject(name)
	if !ok {
		var sketches []string
		for _, o := range doc.Objects() {
			if o.TypeID == sketchType {
				sketches = append(sketches, o.Name)
			}
		}
		return nil, nil, caderr.ObjectNotFound("Sketch", name, doc.Name, sketches)
	}
	sk, ok := obj.Sketch()
	if !ok {
		return nil, nil, &caderr.ValidationError{Field: "sketch", Value: name, Detail: "Object is not a valid sketch."}
	}
	return obj, sk, nil
}

// ============================================================
// Geometry
// ============================================================

// AddGeometry inserts every spec and returns the ids created, in order. A
// rectangle contributes four line ids plus four coincident constraints
// closing the loop.
func (b *Builder) AddGeometry(doc *document.Document, sketchName string, specs []map[string]any, construction bool) ([]int, error) {
	obj, sk, err := Lookup(doc, sketchName)
	if err != nil {
		return nil, err
	}

	ids := []int{}
	for _, spec := range specs {
		kind := strings.ToLower(props.StringOr(spec, "type", ""))
		var added []int
		switch kind {
		case "line":
			added, err = addLine(sk, spec, construction)
		case "rectangle":
			added, err = addRectangle(sk, spec, construction)
		case "circle":
			added, err = addCircle(sk, spec, construction)
		case "arc":
			added, err = addArc(sk, spec, construction)
		case "path":
			added, err = addPath(sk, spec, construction)
		default:
			err = &caderr.ValidationError{Field: "geometry type", Value: kind, Allowed: GeometryKinds}
		}
		ids = append(ids, added...)
		if err != nil {
			b.logger.Error("sketch.geometry_failed", "sketch", obj.Name, "type", kind, "added", len(ids), "error", err.Error())
			return ids, err
		}
	}

	b.recompute(doc)
	b.logger.Info("sketch.geometry_added", "sketch", obj.Name, "count", len(ids))
	return ids, nil
}

func addLine(sk *document.Sketch, spec map[string]any, construction bool) ([]int, error) {
	v, err := numbers(spec, []string{"x1", "y1", "x2", "y2"}, []float64{0, 0, 0, 0})
	if err != nil {
		return nil, err
	}
	line := models.LineSegment(models.Vector{X: v[0], Y: v[1]}, models.Vector{X: v[2], Y: v[3]})
	return []int{sk.AddGeometry(line, construction)}, nil
}

func addRectangle(sk *document.Sketch, spec map[string]any, construction bool) ([]int, error) {
	v, err := numbers(spec, []string{"x", "y", "width", "height"}, []float64{0, 0, 10, 10})
	if err != nil {
		return nil, err
	}
	x, y, w, h := v[0], v[1], v[2], v[3]
	corners := []models.Vector{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}

	ids := make([]int, 4)
	for i := range corners {
		ids[i] = sk.AddGeometry(models.LineSegment(corners[i], corners[(i+1)%4]), construction)
	}
	if err := chain(sk, ids, true); err != nil {
		return ids, err
	}
	return ids, nil
}

func addCircle(sk *document.Sketch, spec map[string]any, construction bool) ([]int, error) {
	v, err := numbers(spec, []string{"cx", "cy", "radius"}, []float64{0, 0, 5})
	if err != nil {
		return nil, err
	}
	return []int{sk.AddGeometry(models.Circle(models.Vector{X: v[0], Y: v[1]}, v[2]), construction)}, nil
}

func addArc(sk *document.Sketch, spec map[string]any, construction bool) ([]int, error) {
	v, err := numbers(spec, []string{"cx", "cy", "radius", "start_angle", "end_angle"}, []float64{0, 0, 5, 0, 90})
	if err != nil {
		return nil, err
	}
	arc := models.ArcOfCircle(models.Vector{X: v[0], Y: v[1]}, v[2], radians(v[3]), radians(v[4]))
	return []int{sk.AddGeometry(arc, construction)}, nil
}

// addPath imports SVG path data as chained lines. Optional x/y offset and
// scale apply to every vertex.
func addPath(sk *document.Sketch, spec map[string]any, construction bool) ([]int, error) {
	d := props.StringOr(spec, "d", "")
	polylines, err := ParsePath(d)
	if err != nil {
		return nil, &caderr.ValidationError{Field: "path", Value: d, Detail: err.Error()}
	}
	v, err := numbers(spec, []string{"x", "y", "scale"}, []float64{0, 0, 1})
	if err != nil {
		return nil, err
	}
	offset, scale := models.Vector{X: v[0], Y: v[1]}, v[2]

	var ids []int
	for _, pl := range polylines {
		pts := pl.Points
		if pl.Closed && len(pts) > 1 && pts[0] != pts[len(pts)-1] {
			pts = append(pts, pts[0])
		}
		var segment []int
		for i := 1; i < len(pts); i++ {
			if pts[i] == pts[i-1] {
				continue
			}
			a, b := pts[i-1].Scale(scale).Add(offset), pts[i].Scale(scale).Add(offset)
			segment = append(segment, sk.AddGeometry(models.LineSegment(a, b), construction))
		}
		ids = append(ids, segment...)
		if err := chain(sk, segment, pl.Closed && len(segment) >= 2); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// chain joins the end of each line to the start of the next, and the last
// back to the first when closed.
func chain(sk *document.Sketch, ids []int, closed bool) error {
	n := len(ids)
	links := n - 1
	if closed {
		links = n
	}
	for i := 0; i < links; i++ {
		c := models.Coincident(ids[i], models.PosEnd, ids[(i+1)%n], models.PosStart)
		if _, err := sk.AddConstraint(c); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Constraints
// ============================================================

// ConstraintKinds lists the accepted constraint spec types.
var ConstraintKinds = []string{
	"horizontal", "vertical", "coincident", "distance", "radius",
	"equal", "perpendicular", "parallel", "fix", "symmetric",
}

// AddConstraints appends every recognised constraint spec and returns how
// many were added. Unknown types are skipped with a warning; a constraint
// referencing missing geometry stops the batch.
func (b *Builder) AddConstraints(doc *document.Document, sketchName string, specs []map[string]any) (int, error) {
	obj, sk, err := Lookup(doc, sketchName)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, spec := range specs {
		kind := strings.ToLower(props.StringOr(spec, "type", ""))
		c, known, err := buildConstraint(kind, spec)
		if err != nil {
			return count, err
		}
		if !known {
			b.logger.Warn("sketch.unknown_constraint", "sketch", obj.Name, "type", kind)
			continue
		}
		if _, err := sk.AddConstraint(c); err != nil {
			b.logger.Error("sketch.constraint_failed", "sketch", obj.Name, "type", kind, "added", count, "error", err.Error())
			return count, err
		}
		count++
	}

	b.recompute(doc)
	b.logger.Info("sketch.constraints_added", "sketch", obj.Name, "count", count)
	return count, nil
}

func buildConstraint(kind string, spec map[string]any) (models.Constraint, bool, error) {
	var (
		v   []float64
		err error
	)
	switch kind {
	case "horizontal", "vertical":
		if v, err = numbers(spec, []string{"geometry_id"}, []float64{0}); err != nil {
			return models.Constraint{}, true, err
		}
		if kind == "horizontal" {
			return models.Horizontal(int(v[0])), true, nil
		}
		return models.Vertical(int(v[0])), true, nil
	case "coincident":
		if v, err = numbers(spec, []string{"id1", "point1", "id2", "point2"}, []float64{0, 2, 1, 1}); err != nil {
			return models.Constraint{}, true, err
		}
		return models.Coincident(int(v[0]), int(v[1]), int(v[2]), int(v[3])), true, nil
	case "distance":
		if v, err = numbers(spec, []string{"geometry_id", "value"}, []float64{0, 10}); err != nil {
			return models.Constraint{}, true, err
		}
		return models.Distance(int(v[0]), v[1]), true, nil
	case "radius":
		if v, err = numbers(spec, []string{"geometry_id", "value"}, []float64{0, 5}); err != nil {
			return models.Constraint{}, true, err
		}
		return models.Radius(int(v[0]), v[1]), true, nil
	case "equal", "perpendicular", "parallel":
		if v, err = numbers(spec, []string{"id1", "id2"}, []float64{0, 1}); err != nil {
			return models.Constraint{}, true, err
		}
		switch kind {
		case "equal":
			return models.Equal(int(v[0]), int(v[1])), true, nil
		case "perpendicular":
			return models.Perpendicular(int(v[0]), int(v[1])), true, nil
		}
		return models.Parallel(int(v[0]), int(v[1])), true, nil
	case "fix":
		if v, err = numbers(spec, []string{"geometry_id", "point"}, []float64{0, 1}); err != nil {
			return models.Constraint{}, true, err
		}
		return models.Fixed(int(v[0]), int(v[1])), true, nil
	case "symmetric":
		if v, err = numbers(spec, []string{"id1", "point1", "id2", "point2"}, []float64{0, 1, 0, 2}); err != nil {
			return models.Constraint{}, true, err
		}
		axis := models.AxisX
		if strings.EqualFold(props.StringOr(spec, "axis", "Y"), "Y") {
			axis = models.AxisY
		}
		return models.Symmetric(int(v[0]), int(v[1]), int(v[2]), int(v[3]), axis), true, nil
	}
	return models.Constraint{}, false, nil
}

// ============================================================
// Helpers
// ============================================================

func numbers(spec map[string]any, keys []string, defaults []float64) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, key := range keys {
		f, err := props.NumberOr(spec, key, defaults[i])
		if err != nil {
			return nil, &caderr.ValidationError{Field: key, Value: spec[key], Detail: "Expected a number."}
		}
		out[i] = f
	}
	return out, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func (b *Builder) recompute(doc *document.Document) {
	if err := doc.Recompute(); err != nil {
		b.logger.Warn("sketch.recompute_failed", "document", doc.Name, "error", err.Error())
	}
}
