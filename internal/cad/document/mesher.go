package document

import (
	"errors"
	"math"
)

// ============================================================
// Mesh generation
// ============================================================

// GmshMesher estimates a tetrahedral mesh over the linked part's bounds.
// Node and element counts are written back onto the mesh object.
type GmshMesher struct{}

func (m *GmshMesher) Generate(mesh *Object) error {
	part := mesh.Link("Part")
	if part == nil {
		return errors.New("mesh has no Part to mesh")
	}
	shape := part.GlobalShape()
	if shape.IsNull() {
		return errors.New("part shape is null, recompute the document first")
	}
	size := shape.Size()
	h := mesh.Float("CharacteristicLengthMax")
	if h <= 0 {
		h = math.Max(size.X, math.Max(size.Y, size.Z)) / 10
	}
	if minH := mesh.Float("CharacteristicLengthMin"); minH > 0 && h < minH {
		h = minH
	}
	if h <= 0 {
		return errors.New("cannot derive a characteristic length from a degenerate shape")
	}

	cells := func(extent float64) int {
		return int(math.Max(1, math.Ceil(extent/h)))
	}
	nx, ny, nz := cells(size.X), cells(size.Y), cells(size.Z)
	elements := nx * ny * nz * 6
	nodes := (nx + 1) * (ny + 1) * (nz + 1)
	if v, _ := mesh.Get("ElementOrder"); v == "2nd" {
		nodes += nx*ny*(nz+1) + nx*(ny+1)*nz + (nx+1)*ny*nz + elements
	}
	if err := mesh.Set("NodeCount", nodes); err != nil {
		return err
	}
	return mesh.Set("ElementCount", elements)
}
