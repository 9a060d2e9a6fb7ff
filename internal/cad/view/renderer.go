// Package view renders a document as an SVG line drawing from one of the
// standard camera directions. Each visible object is drawn as the outline
// of its projected bounding box.
package view

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"
)

// ============================================================
// Cameras
// ============================================================

// camera holds the screen basis for one view: dir points into the scene.
type camera struct {
	dir, right, up models.Vector
}

var cameras = map[string]camera{
	"Front":     lookAlong(models.Vector{Y: 1}),
	"Back":      lookAlong(models.Vector{Y: -1}),
	"Right":     lookAlong(models.Vector{X: -1}),
	"Left":      lookAlong(models.Vector{X: 1}),
	"Top":       {dir: models.Vector{Z: -1}, right: models.Vector{X: 1}, up: models.Vector{Y: 1}},
	"Bottom":    {dir: models.Vector{Z: 1}, right: models.Vector{X: 1}, up: models.Vector{Y: -1}},
	"Isometric": lookAlong(models.Vector{X: -1, Y: 1, Z: -1}),
	"Dimetric":  lookAlong(models.Vector{X: -1, Y: 1, Z: -0.5}),
	"Trimetric": lookAlong(models.Vector{X: -0.6, Y: 1, Z: -0.75}),
}

// ViewNames lists the accepted view names in presentation order.
var ViewNames = []string{"Isometric", "Front", "Top", "Right", "Back", "Left", "Bottom", "Dimetric", "Trimetric"}

func lookAlong(dir models.Vector) camera {
	d := dir.Scale(1 / dir.Length())
	right := cross(d, models.Vector{Z: 1})
	right = right.Scale(1 / right.Length())
	return camera{dir: d, right: right, up: cross(right, d)}
}

func (c camera) project(p models.Vector) (x, y, depth float64) {
	// SVG y grows downwards.
	return dot(p, c.right), -dot(p, c.up), dot(p, c.dir)
}

// ============================================================
// Renderer
// ============================================================

type Options struct {
	Width  int
	Height int
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	return &Renderer{opts: opts}
}

type outline struct {
	name   string
	points []point
	depth  float64
	color  models.Color
	alpha  float64
}

type point struct{ x, y float64 }

// Render draws every visible object with a shape. Farther objects are
// emitted first so nearer ones paint over them.
func (r *Renderer) Render(doc *document.Document, viewName string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("no active document")
	}
	if viewName == "" {
		viewName = "Isometric"
	}
	cam, ok := cameras[viewName]
	if !ok {
		return "", caderr.Invalid("view name", viewName, ViewNames...)
	}

	var outlines []outline
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, obj := range doc.Objects() {
		shape := obj.GlobalShape()
		if !obj.View.Visibility || shape.IsNull() {
			continue
		}
		var pts []point
		depth := 0.0
		for _, c := range corners(shape) {
			x, y, d := cam.project(c)
			pts = append(pts, point{x, y})
			depth += d / 8
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
		outlines = append(outlines, outline{
			name:   obj.Name,
			points: hull(pts),
			depth:  depth,
			color:  obj.View.ShapeColor,
			alpha:  1 - float64(obj.View.Transparency)/100,
		})
	}
	sort.SliceStable(outlines, func(i, j int) bool { return outlines[i].depth > outlines[j].depth })

	viewBox := "0 0 1000 1000"
	if len(outlines) > 0 {
		w, h := maxX-minX, maxY-minY
		margin := math.Max(math.Max(w, h)*0.05, 1)
		viewBox = strings.Join([]string{
			formatFloat(minX - margin), formatFloat(minY - margin),
			formatFloat(w + 2*margin), formatFloat(h + 2*margin),
		}, " ")
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%s" data-view="%s">`,
		r.opts.Width, r.opts.Height, viewBox, viewName))
	builder.WriteString("\n")
	for _, o := range outlines {
		builder.WriteString("  ")
		builder.WriteString(renderOutline(o))
		builder.WriteString("\n")
	}
	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

func renderOutline(o outline) string {
	var path strings.Builder
	path.WriteString(`<path id="`)
	path.WriteString(o.name)
	path.WriteString(`" d="M `)
	path.WriteString(formatPoint(o.points[0]))
	for _, p := range o.points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(fmt.Sprintf(` Z" fill="%s" fill-opacity="%s" stroke="#000" vector-effect="non-scaling-stroke" />`,
		rgb(o.color), formatFloat(o.alpha)))
	return path.String()
}

// ============================================================
// Geometry helpers
// ============================================================

func corners(s *models.Shape) []models.Vector {
	a, b := s.Min, s.Max
	return []models.Vector{
		{X: a.X, Y: a.Y, Z: a.Z}, {X: b.X, Y: a.Y, Z: a.Z},
		{X: a.X, Y: b.Y, Z: a.Z}, {X: b.X, Y: b.Y, Z: a.Z},
		{X: a.X, Y: a.Y, Z: b.Z}, {X: b.X, Y: a.Y, Z: b.Z},
		{X: a.X, Y: b.Y, Z: b.Z}, {X: b.X, Y: b.Y, Z: b.Z},
	}
}

// hull is Andrew's monotone chain; the result is counter-clockwise without
// the closing point. Degenerate inputs return the distinct extremes.
func hull(pts []point) []point {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].x != pts[j].x {
			return pts[i].x < pts[j].x
		}
		return pts[i].y < pts[j].y
	})
	turn := func(o, a, b point) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}
	var lower, upper []point
	for _, p := range pts {
		for len(lower) >= 2 && turn(lower[len(lower)-2], lower[len(lower)-1], p) <= 1e-12 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && turn(upper[len(upper)-2], upper[len(upper)-1], p) <= 1e-12 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	out := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}

func cross(a, b models.Vector) models.Vector {
	return models.Vector{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot(a, b models.Vector) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// ============================================================
// Formatting helpers
// ============================================================

func rgb(c models.Color) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func formatFloat(val float64) string {
	val = math.Round(val*1000) / 1000
	if val == 0 {
		val = 0 // drop negative zero
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p point) string {
	return formatFloat(p.x) + " " + formatFloat(p.y)
}
