package sketch

import (
	"errors"
	"math"
	"testing"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSketch(t *testing.T) (*document.Document, *document.Sketch) {
	t.Helper()
	doc := document.NewApp().NewDocument("Doc")
	obj, err := doc.AddObject("Sketcher::SketchObject", "Sketch")
	require.NoError(t, err)
	sk, ok := obj.Sketch()
	require.True(t, ok)
	return doc, sk
}

func TestRectangleYieldsFourLinesAndClosedLoop(t *testing.T) {
	tests := []struct {
		name string
		spec map[string]any
	}{
		{name: "defaults", spec: map[string]any{"type": "rectangle"}},
		{name: "offset", spec: map[string]any{"type": "rectangle", "x": -10.0, "y": -10.0, "width": 20.0, "height": 20.0}},
		{name: "negative size", spec: map[string]any{"type": "rectangle", "width": -5.0, "height": -3.0}},
		{name: "degenerate", spec: map[string]any{"type": "rectangle", "width": 0.0, "height": 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, sk := newSketch(t)
			b := NewBuilder(nil)

			ids, err := b.AddGeometry(doc, "Sketch", []map[string]any{tt.spec}, false)
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1, 2, 3}, ids)

			constraints := sk.Constraints()
			require.Len(t, constraints, 4)
			for i, c := range constraints {
				assert.Equal(t, "Coincident", c.Type)
				assert.Equal(t, ids[i], c.First)
				assert.Equal(t, models.PosEnd, c.FirstPos)
				assert.Equal(t, ids[(i+1)%4], c.Second)
				assert.Equal(t, models.PosStart, c.SecondPos)
			}

			geo := sk.Geometry()
			for i := range geo {
				assert.Equal(t, geo[i].End, geo[(i+1)%4].Start)
			}
		})
	}
}

func TestAddGeometryAssignsSequentialIdsAndRecomputesOnce(t *testing.T) {
	doc, sk := newSketch(t)
	b := NewBuilder(nil)

	ids, err := b.AddGeometry(doc, "Sketch", []map[string]any{
		{"type": "line", "x2": 10.0},
		{"type": "Circle", "radius": 3.0},
		{"type": "arc", "start_angle": 90.0, "end_angle": 180.0},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ids)
	assert.Equal(t, 1, doc.RecomputeCount())

	geo := sk.Geometry()
	assert.Equal(t, models.GeomLine, geo[0].Kind)
	assert.Equal(t, 3.0, geo[1].Radius)
	assert.InDelta(t, math.Pi/2, geo[2].StartAngle, 1e-9)
	assert.InDelta(t, math.Pi, geo[2].EndAngle, 1e-9)
	assert.Equal(t, 5.0, geo[2].Radius)
	assert.True(t, geo[0].Construction)
}

func TestUnknownGeometryKeepsEarlierElements(t *testing.T) {
	doc, sk := newSketch(t)
	b := NewBuilder(nil)

	ids, err := b.AddGeometry(doc, "Sketch", []map[string]any{
		{"type": "line"},
		{"type": "spline"},
		{"type": "circle"},
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'spline'")
	assert.Equal(t, []int{0}, ids)
	assert.Equal(t, 1, sk.GeometryCount())
	assert.Equal(t, 0, doc.RecomputeCount())
}

func TestAddGeometryMissingSketchListsSketches(t *testing.T) {
	doc, _ := newSketch(t)
	_, err := doc.AddObject("Part::Box", "Box")
	require.NoError(t, err)
	b := NewBuilder(nil)

	_, err = b.AddGeometry(doc, "Nope", nil, false)
	require.True(t, caderr.IsNotFound(err))
	assert.Equal(t, "Sketch 'Nope' not found in document 'Doc'. Available objects: Sketch", err.Error())

	_, err = b.AddGeometry(doc, "Box", nil, false)
	var verr *caderr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPathBecomesChainedLines(t *testing.T) {
	doc, sk := newSketch(t)
	b := NewBuilder(nil)

	ids, err := b.AddGeometry(doc, "Sketch", []map[string]any{
		{"type": "path", "d": "M 0 0 H 10 V 5 L 0 5 Z", "scale": 2.0},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, ids)
	assert.Len(t, sk.Constraints(), 4)

	geo := sk.Geometry()
	assert.Equal(t, models.Vector{X: 20}, geo[0].End)
	assert.Equal(t, models.Vector{}, geo[3].End)
}

func TestClosedPathLoopsBackToStart(t *testing.T) {
	tests := []struct {
		name            string
		d               string
		wantLines       int
		wantCoincidents int
	}{
		{name: "two segments", d: "M0 0 L10 0 Z", wantLines: 2, wantCoincidents: 2},
		{name: "triangle", d: "M0 0 L10 0 L5 5 Z", wantLines: 3, wantCoincidents: 3},
		{name: "open", d: "M0 0 L10 0 L5 5", wantLines: 2, wantCoincidents: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, sk := newSketch(t)
			ids, err := NewBuilder(nil).AddGeometry(doc, "Sketch", []map[string]any{{"type": "path", "d": tt.d}}, false)
			require.NoError(t, err)
			require.Len(t, ids, tt.wantLines)

			constraints := sk.Constraints()
			require.Len(t, constraints, tt.wantCoincidents)
			if tt.wantCoincidents == tt.wantLines {
				last := constraints[len(constraints)-1]
				assert.Equal(t, models.Coincident(ids[len(ids)-1], models.PosEnd, ids[0], models.PosStart), last)
			}
		})
	}
}

func TestAddConstraintsDefaultsAndSkipsUnknown(t *testing.T) {
	doc, sk := newSketch(t)
	b := NewBuilder(nil)
	_, err := b.AddGeometry(doc, "Sketch", []map[string]any{{"type": "line", "x2": 5.0}, {"type": "line", "y2": 5.0}}, false)
	require.NoError(t, err)

	count, err := b.AddConstraints(doc, "Sketch", []map[string]any{
		{"type": "horizontal"},
		{"type": "coincident"},
		{"type": "distance"},
		{"type": "tangent"},
		{"type": "symmetric", "axis": "x"},
		{"type": "fix", "geometry_id": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 2, doc.RecomputeCount())

	cs := sk.Constraints()
	require.Len(t, cs, 5)
	assert.Equal(t, models.Coincident(0, models.PosEnd, 1, models.PosStart), cs[1])
	assert.Equal(t, 10.0, cs[2].Value)
	assert.Equal(t, models.AxisX, cs[3].Third)
	assert.Equal(t, models.Fixed(1, models.PosStart), cs[4])
}

func TestSymmetricDefaultsToYAxis(t *testing.T) {
	c, known, err := buildConstraint("symmetric", map[string]any{})
	require.NoError(t, err)
	require.True(t, known)
	assert.Equal(t, models.AxisY, c.Third)
	assert.Equal(t, models.PosStart, c.FirstPos)
	assert.Equal(t, models.PosEnd, c.SecondPos)
}

func TestConstraintOnMissingGeometryStopsBatch(t *testing.T) {
	doc, sk := newSketch(t)
	b := NewBuilder(nil)
	_, err := b.AddGeometry(doc, "Sketch", []map[string]any{{"type": "circle"}}, false)
	require.NoError(t, err)

	count, err := b.AddConstraints(doc, "Sketch", []map[string]any{
		{"type": "radius", "value": 4.0},
		{"type": "equal", "id1": 0.0, "id2": 7.0},
		{"type": "radius"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, sk.ConstraintCount())
}
