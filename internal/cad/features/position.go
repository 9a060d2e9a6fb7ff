package features

import (
	"fmt"
	"strings"

	"cad-bridge/internal/cad/models"
	"cad-bridge/internal/cad/props"
)

// ============================================================
// Batch positioning
// ============================================================

type PositionResult struct {
	Updated  int
	NotFound []string
	Message  string
}

// BatchPosition moves every named object, keeping its rotation. In absolute
// mode position keys that are missing keep the current coordinate; otherwise
// offset is added. Missing names are collected rather than failing the batch.
func (c *Commands) BatchPosition(docName string, names []string, offset, position map[string]any, absolute bool) (PositionResult, error) {
	doc, err := c.dispatch.Document(docName)
	if err != nil {
		return PositionResult{}, err
	}

	res := PositionResult{NotFound: []string{}}
	for _, name := range names {
		obj, ok := doc.GetObject(name)
		if !ok {
			res.NotFound = append(res.NotFound, name)
			continue
		}
		pl, ok := obj.Placement()
		if !ok {
			c.logger.Warn("features.position_skipped", "object", name, "reason", "no Placement property")
			continue
		}

		var next models.Vector
		switch {
		case absolute && position != nil:
			if next, err = props.Vector(position, pl.Base); err != nil {
				return res, err
			}
		case offset != nil:
			delta, err := props.Vector(offset, models.Vector{})
			if err != nil {
				return res, err
			}
			next = pl.Base.Add(delta)
		default:
			continue
		}

		if err := obj.Set("Placement", models.NewPlacement(next, pl.Rotation)); err != nil {
			return res, err
		}
		res.Updated++
	}
	c.dispatch.Recompute(doc)

	res.Message = fmt.Sprintf("Updated %d of %d objects", res.Updated, len(names))
	if len(res.NotFound) > 0 {
		res.Message += ". Not found: " + strings.Join(res.NotFound, ", ")
	}
	c.logger.Info("features.batch_positioned",
		"document", doc.Name,
		"updated", res.Updated,
		"requested", len(names),
		"not_found", len(res.NotFound),
	)
	return res, nil
}
