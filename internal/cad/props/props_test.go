package props

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T) *document.Document {
	t.Helper()
	return document.NewApp().NewDocument("Test")
}

func addObject(t *testing.T, doc *document.Document, typeID, name string) *document.Object {
	t.Helper()
	obj, err := doc.AddObject(typeID, name)
	require.NoError(t, err)
	return obj
}

func TestApplyPlacementAcceptsBaseAndLegacyPosition(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")

	errs := Apply(nil, doc, box, map[string]any{
		"Placement": map[string]any{
			"Position": map[string]any{"x": 1.0, "y": 2.0},
			"Rotation": map[string]any{"Angle": 45.0},
		},
	})
	require.Empty(t, errs)
	pl, _ := box.Placement()
	assert.Equal(t, models.Vector{X: 1, Y: 2}, pl.Base)
	assert.Equal(t, models.Vector{Z: 1}, pl.Rotation.Axis)
	assert.Equal(t, 45.0, pl.Rotation.Angle)

	errs = Apply(nil, doc, box, map[string]any{
		"Placement": map[string]any{
			"Base":     map[string]any{"z": 5.0},
			"Rotation": map[string]any{"Axis": map[string]any{"x": 1.0, "z": 0.0}, "Angle": 90.0},
		},
	})
	require.Empty(t, errs)
	pl, _ = box.Placement()
	assert.Equal(t, models.Vector{Z: 5}, pl.Base)
	assert.Equal(t, models.Vector{X: 1}, pl.Rotation.Axis)
}

func TestApplyVectorFromMap(t *testing.T) {
	doc := newDoc(t)
	ext := addObject(t, doc, "Part::Extrusion", "Ext")

	errs := Apply(nil, doc, ext, map[string]any{"Dir": map[string]any{"x": 1.0}})
	require.Empty(t, errs)
	v, _ := ext.Get("Dir")
	assert.Equal(t, models.Vector{X: 1}, v)
}

func TestApplyKeepsValidPropertyWhenSiblingFails(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")

	errs := Apply(nil, doc, box, map[string]any{
		"Length": json.Number("25"),
		"Width":  "wide",
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "Width")
	assert.Equal(t, 25.0, box.Float("Length"))
	assert.Equal(t, 10.0, box.Float("Width"))
}

func TestApplyResolvesReferenceProperties(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")
	cyl := addObject(t, doc, "Part::Cylinder", "Cyl")
	cut := addObject(t, doc, "Part::Cut", "Cut")

	errs := Apply(nil, doc, cut, map[string]any{"Base": "Box", "Tool": "Missing"})
	require.Len(t, errs, 1)

	var refErr *caderr.ReferenceError
	require.True(t, errors.As(errs[0], &refErr))
	assert.Equal(t, "Missing", refErr.Name)
	assert.Contains(t, errs[0].Error(), "Referenced object 'Missing' not found.")
	assert.Same(t, box, cut.Link("Base"))
	assert.Nil(t, cut.Link("Tool"))

	require.Empty(t, Apply(nil, doc, cut, map[string]any{"Tool": "Cyl"}))
	assert.Same(t, cyl, cut.Link("Tool"))
}

func TestApplyReferencesFailsWholeListOnly(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")
	fixed := addObject(t, doc, "Fem::ConstraintFixed", "Fixed")

	errs := Apply(nil, doc, fixed, map[string]any{
		"References": []any{[]any{"Box", "Face1"}, []any{"Ghost", "Face2"}},
		"Scale":      2.0,
	})
	require.Len(t, errs, 1)
	v, _ := fixed.Get("References")
	assert.Empty(t, v)
	scale, _ := fixed.Get("Scale")
	assert.Equal(t, 2, scale)

	require.Empty(t, Apply(nil, doc, fixed, map[string]any{
		"References": []any{[]any{"Box", "Face1"}, []any{"Box", "Face6"}},
	}))
	v, _ = fixed.Get("References")
	assert.Equal(t, []document.LinkSub{{Object: box, Sub: "Face1"}, {Object: box, Sub: "Face6"}}, v)
}

func TestApplyRoutesDisplayAttributesToView(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")

	errs := Apply(nil, doc, box, map[string]any{
		"ShapeColor": []any{1.0, 0.0, 0.0, 1.0},
		"ViewObject": map[string]any{"Visibility": true, "Transparency": 40.0},
	})
	require.Empty(t, errs)
	assert.Equal(t, models.Color{1, 0, 0, 1}, box.View.ShapeColor)
	assert.True(t, box.View.Visibility)
	assert.Equal(t, 40, box.View.Transparency)

	errs = Apply(nil, doc, box, map[string]any{"ShapeColor": []any{1.0, 0.0}})
	assert.Len(t, errs, 1)
}

func TestApplyIgnoresUnknownProperties(t *testing.T) {
	doc := newDoc(t)
	box := addObject(t, doc, "Part::Box", "Box")

	errs := Apply(nil, doc, box, map[string]any{"Frobnicate": 3.0})
	assert.Empty(t, errs)
	assert.False(t, box.HasProperty("Frobnicate"))
}

func TestPlacementRejectsNonMapBase(t *testing.T) {
	_, err := Placement(map[string]any{"Base": []any{1.0, 2.0, 3.0}})
	assert.Error(t, err)
}

func TestNumberRejectsNonFinite(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{in: 2.5, want: true},
		{in: json.Number("1e200"), want: true},
		{in: math.Inf(1), want: false},
		{in: math.NaN(), want: false},
		{in: json.Number("1e400"), want: false},
		{in: "3", want: false},
	}
	for _, tt := range tests {
		_, ok := Number(tt.in)
		assert.Equal(t, tt.want, ok, "%v", tt.in)
	}

	_, err := Vector(map[string]any{"x": math.Inf(-1)}, models.Vector{})
	assert.Error(t, err)
}

func TestApplyReportsSelfReference(t *testing.T) {
	doc := newDoc(t)
	ext := addObject(t, doc, "Part::Extrusion", "Ext")

	errs := Apply(nil, doc, ext, map[string]any{"Base": "Ext"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "cyclic dependency")
	assert.Nil(t, ext.Link("Base"))
}

func TestFaceRefsAcceptsMaps(t *testing.T) {
	refs, err := FaceRefs([]any{map[string]any{"object": "Box", "sub": "Face3"}})
	require.NoError(t, err)
	assert.Equal(t, []models.FaceRef{{Object: "Box", Sub: "Face3"}}, refs)

	_, err = FaceRefs([]any{[]any{"Box"}})
	assert.Error(t, err)
}
