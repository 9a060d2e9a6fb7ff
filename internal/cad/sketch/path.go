package sketch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// SVG path import
// ============================================================

// Polyline is one subpath of an SVG path: its vertices in drawing order and
// whether it was closed with Z.
type Polyline struct {
	Points []models.Vector
	Closed bool
}

var pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath reads the straight-segment subset of SVG path data (M, L, H, V,
// Z and their relative forms). Every moveto starts a new polyline; extra
// coordinate pairs after a moveto are treated as linetos.
func ParsePath(d string) ([]Polyline, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}
	if rest := pathCommand.ReplaceAllString(d, ""); strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unsupported path data %q: only M, L, H, V and Z commands are allowed", strings.TrimSpace(rest))
	}

	var (
		lines   []Polyline
		current *Polyline
		cur     models.Vector
		start   models.Vector
	)
	flush := func() {
		if current != nil && len(current.Points) > 0 {
			lines = append(lines, *current)
		}
		current = nil
	}
	lineTo := func(p models.Vector) {
		if current == nil {
			current = &Polyline{Points: []models.Vector{cur}}
		}
		cur = p
		current.Points = append(current.Points, p)
	}

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords, err := parseCoords(match[2])
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", cmd, err)
		}
		relative := cmd == strings.ToLower(cmd)

		switch strings.ToUpper(cmd) {
		case "M", "L":
			if len(coords) == 0 || len(coords)%2 != 0 {
				return nil, fmt.Errorf("command %s needs coordinate pairs, got %d numbers", cmd, len(coords))
			}
			for i := 0; i < len(coords); i += 2 {
				p := models.Vector{X: coords[i], Y: coords[i+1]}
				if relative {
					p = cur.Add(p)
				}
				if i == 0 && strings.ToUpper(cmd) == "M" {
					flush()
					cur, start = p, p
					current = &Polyline{Points: []models.Vector{p}}
					continue
				}
				lineTo(p)
			}
		case "H", "V":
			if len(coords) == 0 {
				return nil, fmt.Errorf("command %s needs at least one number", cmd)
			}
			for _, c := range coords {
				p := cur
				horizontal := strings.ToUpper(cmd) == "H"
				switch {
				case horizontal && relative:
					p.X += c
				case horizontal:
					p.X = c
				case relative:
					p.Y += c
				default:
					p.Y = c
				}
				lineTo(p)
			}
		case "Z":
			if current != nil {
				current.Closed = true
			}
			flush()
			cur = start
		}
	}
	flush()

	if len(lines) == 0 {
		return nil, fmt.Errorf("path %q has no drawable segments", d)
	}
	return lines, nil
}

func parseCoords(s string) ([]float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	coords := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || !models.IsFinite(v) {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		coords = append(coords, v)
	}
	return coords, nil
}
