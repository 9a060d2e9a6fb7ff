package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanVolumes(t *testing.T) {
	cube := BoxShape(Vector{}, 10, 10, 10)

	tests := []struct {
		name       string
		tool       *Shape
		wantCut    float64
		wantFuse   float64
		wantCommon float64
	}{
		{
			name:       "half overlap",
			tool:       BoxShape(Vector{X: 5}, 10, 10, 10),
			wantCut:    500,
			wantFuse:   1500,
			wantCommon: 500,
		},
		{
			name:       "disjoint",
			tool:       BoxShape(Vector{X: 20}, 10, 10, 10),
			wantCut:    1000,
			wantFuse:   2000,
			wantCommon: 0,
		},
		{
			name:       "tool inside",
			tool:       BoxShape(Vector{X: 2, Y: 2, Z: 2}, 2, 2, 2),
			wantCut:    992,
			wantFuse:   1000,
			wantCommon: 8,
		},
		{
			name:       "tool swallows base",
			tool:       BoxShape(Vector{X: -5, Y: -5, Z: -5}, 20, 20, 20),
			wantCut:    0,
			wantFuse:   8000,
			wantCommon: 1000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantCut, cube.Cut(tt.tool).Volume, 1e-9)
			assert.InDelta(t, tt.wantFuse, cube.Fuse(tt.tool).Volume, 1e-9)
			assert.InDelta(t, tt.wantCommon, cube.Common(tt.tool).Volume, 1e-9)
		})
	}
}

func TestBooleanBounds(t *testing.T) {
	a := BoxShape(Vector{}, 10, 10, 10)
	b := BoxShape(Vector{X: 5, Y: 5, Z: 5}, 10, 10, 10)

	cut := a.Cut(b)
	assert.Equal(t, "cut", cut.Kind)
	assert.Equal(t, a.Min, cut.Min)
	assert.Equal(t, a.Max, cut.Max)
	assert.Equal(t, []*Shape{a, b}, cut.Children)

	fuse := a.Fuse(b)
	assert.Equal(t, Vector{}, fuse.Min)
	assert.Equal(t, Vector{X: 15, Y: 15, Z: 15}, fuse.Max)

	common := a.Common(b)
	assert.Equal(t, Vector{X: 5, Y: 5, Z: 5}, common.Min)
	assert.Equal(t, Vector{X: 10, Y: 10, Z: 10}, common.Max)

	apart := a.Common(BoxShape(Vector{X: 50}, 1, 1, 1))
	assert.Equal(t, Vector{}, apart.Min)
	assert.Equal(t, Vector{}, apart.Max)
}

func TestMovedRefitsBounds(t *testing.T) {
	box := BoxShape(Vector{}, 10, 4, 2)

	shifted := box.Moved(NewPlacement(Vector{X: 1, Y: 2, Z: 3}, IdentityRotation()))
	assert.Equal(t, Vector{X: 1, Y: 2, Z: 3}, shifted.Min)
	assert.Equal(t, Vector{X: 11, Y: 6, Z: 5}, shifted.Max)
	assert.Equal(t, box.Volume, shifted.Volume)
	assert.Equal(t, Vector{}, box.Min, "Moved must not modify the receiver")

	turned := box.Moved(NewPlacement(Vector{}, Rotation{Axis: Vector{Z: 1}, Angle: 90}))
	assert.InDelta(t, -4, turned.Min.X, 1e-9)
	assert.InDelta(t, 0, turned.Max.X, 1e-9)
	assert.InDelta(t, 10, turned.Max.Y, 1e-9)

	var null *Shape
	assert.True(t, null.Moved(NewPlacement(Vector{X: 1}, IdentityRotation())).IsNull())
}

func TestPrismShape(t *testing.T) {
	tests := []struct {
		name    string
		dir     Vector
		wantMin Vector
		wantMax Vector
		wantVol float64
	}{
		{name: "up", dir: Vector{Z: 5}, wantMin: Vector{}, wantMax: Vector{X: 2, Y: 3, Z: 5}, wantVol: 30},
		{name: "down", dir: Vector{Z: -5}, wantMin: Vector{Z: -5}, wantMax: Vector{X: 2, Y: 3}, wantVol: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PrismShape(Vector{}, Vector{X: 2, Y: 3}, 6, tt.dir)
			assert.Equal(t, tt.wantMin, p.Min)
			assert.Equal(t, tt.wantMax, p.Max)
			assert.InDelta(t, tt.wantVol, p.Volume, 1e-9)
		})
	}
}

func TestShapeFinite(t *testing.T) {
	assert.True(t, BoxShape(Vector{}, 1, 2, 3).Finite())
	assert.True(t, (*Shape)(nil).Finite())

	huge := BoxShape(Vector{}, 1e200, 1e200, 1e200)
	require.True(t, math.IsInf(huge.Volume, 1))
	assert.False(t, huge.Finite())

	assert.False(t, Vector{X: math.NaN()}.Finite())
	assert.False(t, NewPlacement(Vector{}, Rotation{Axis: Vector{Z: 1}, Angle: math.Inf(-1)}).Finite())
}
