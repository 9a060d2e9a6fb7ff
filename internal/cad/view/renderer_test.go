package view

import (
	"errors"
	"strings"
	"testing"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxDoc(t *testing.T) *document.Document {
	t.Helper()
	doc := document.NewApp().NewDocument("Doc")
	box, err := doc.AddObject("Part::Box", "Box")
	require.NoError(t, err)
	box.View.Visibility = true
	box.View.ShapeColor = models.Color{1, 0, 0, 1}
	require.NoError(t, doc.Recompute())
	return doc
}

func TestRenderFrontViewOfBox(t *testing.T) {
	svg, err := NewRenderer(Options{}).Render(boxDoc(t), "Front")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, svg, `width="800" height="600" viewBox="-1 -11 12 12" data-view="Front"`)
	assert.Contains(t, svg, `<path id="Box" d="M 0 -10 L 10 -10 L 10 0 L 0 0 Z" fill="rgb(255,0,0)" fill-opacity="1"`)
}

func TestRenderEveryNamedView(t *testing.T) {
	doc := boxDoc(t)
	r := NewRenderer(Options{Width: 100, Height: 100})
	for _, name := range ViewNames {
		t.Run(name, func(t *testing.T) {
			svg, err := r.Render(doc, name)
			require.NoError(t, err)
			assert.Contains(t, svg, `id="Box"`)
			assert.NotContains(t, svg, "NaN")
		})
	}
}

func TestRenderSkipsHiddenObjectsAndOrdersByDepth(t *testing.T) {
	doc := boxDoc(t)
	far, err := doc.AddObject("Part::Box", "Far")
	require.NoError(t, err)
	require.NoError(t, far.Set("Placement", models.NewPlacement(models.Vector{Y: 50}, models.IdentityRotation())))
	far.View.Visibility = true
	hidden, err := doc.AddObject("Part::Sphere", "Hidden")
	require.NoError(t, err)
	hidden.View.Visibility = false
	require.NoError(t, doc.Recompute())

	svg, err := NewRenderer(Options{}).Render(doc, "Front")
	require.NoError(t, err)
	assert.NotContains(t, svg, `id="Hidden"`)
	assert.Less(t, strings.Index(svg, `id="Far"`), strings.Index(svg, `id="Box"`))
}

func TestRenderRejectsUnknownView(t *testing.T) {
	_, err := NewRenderer(Options{}).Render(boxDoc(t), "Sideways")
	var verr *caderr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "Isometric, Front, Top")
}

func TestRenderEmptyDocument(t *testing.T) {
	svg, err := NewRenderer(Options{}).Render(document.NewApp().NewDocument("Empty"), "")
	require.NoError(t, err)
	assert.Contains(t, svg, `viewBox="0 0 1000 1000" data-view="Isometric"`)
	assert.NotContains(t, svg, "<path")
}

func TestHullOfSquare(t *testing.T) {
	got := hull([]point{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {0.5, 0.5}})
	assert.Equal(t, []point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, got)
}
