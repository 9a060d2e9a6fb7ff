package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cad-bridge/internal/cad/models"
)

// ============================================================
// Fasteners add-on
// ============================================================

type fastenerKind int

const (
	kindScrew fastenerKind = iota
	kindNut
	kindWasher
)

type fastenerDef struct {
	kind        fastenerKind
	description string
	// head height and diameter as multiples of the nominal diameter
	headH, headD float64
}

var fastenerTable = map[string]fastenerDef{
	"ISO4017":   {kindScrew, "Hex head screw", 0.7, 1.6},
	"ISO4014":   {kindScrew, "Hex head bolt", 0.7, 1.6},
	"ISO4762":   {kindScrew, "Hexagon socket head cap screw", 1.0, 1.5},
	"DIN912":    {kindScrew, "Hexagon socket head cap screw", 1.0, 1.5},
	"ISO7380-1": {kindScrew, "Button head screw", 0.55, 1.75},
	"DIN933":    {kindScrew, "Hex head screw, fully threaded", 0.7, 1.6},
	"DIN464":    {kindScrew, "Knurled thumb screw", 1.5, 3.0},
	"ISO4032":   {kindNut, "Hexagon nut", 0.8, 1.6},
	"DIN934":    {kindNut, "Hexagon nut", 0.8, 1.6},
	"ISO7089":   {kindWasher, "Plain washer", 0.16, 2.0},
}

var metricSizes = []string{"M2", "M2.5", "M3", "M4", "M5", "M6", "M8", "M10", "M12"}

// ScrewMaker is the built-in fastener factory.
type ScrewMaker struct{}

func NewScrewMaker() *ScrewMaker {
	return &ScrewMaker{}
}

func (m *ScrewMaker) Types() []string {
	types := make([]string, 0, len(fastenerTable))
	for t := range fastenerTable {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build turns obj into a fastener of the given type.
func (m *ScrewMaker) Build(obj *Object, fastenerType string, attachTo *Object, diameter, length string) error {
	def, ok := fastenerTable[fastenerType]
	if !ok {
		return fmt.Errorf("unknown fastener type '%s'. Available types: %s", fastenerType, strings.Join(m.Types(), ", "))
	}
	d, err := parseDiameter(diameter)
	if err != nil {
		return err
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(length), 64)
	if err != nil || l <= 0 {
		return fmt.Errorf("invalid fastener length '%s'", length)
	}

	obj.AddProperty(PropertySpec{Name: "Type", Kind: KindString})
	obj.AddProperty(PropertySpec{Name: "Diameter", Kind: KindEnum, Enum: metricSizes})
	obj.AddProperty(PropertySpec{Name: "Length", Kind: KindFloat})
	obj.AddProperty(PropertySpec{Name: "BaseObject", Kind: KindLink})
	if err := obj.Set("Type", fastenerType); err != nil {
		return err
	}
	if err := obj.Set("Diameter", diameter); err != nil {
		return err
	}
	if err := obj.Set("Length", l); err != nil {
		return err
	}
	if err := obj.Set("BaseObject", attachTo); err != nil {
		return err
	}
	obj.Proxy = &Screw{def: def, diameter: d}
	return nil
}

func parseDiameter(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, size := range metricSizes {
		if strings.EqualFold(size, s) {
			return strconv.ParseFloat(size[1:], 64)
		}
	}
	return 0, fmt.Errorf("invalid fastener diameter '%s'. Available diameters: %s", s, strings.Join(metricSizes, ", "))
}

// Screw is the proxy of a fastener object.
type Screw struct {
	def      fastenerDef
	diameter float64
}

// Execute builds the fastener shape: head on top of a shank pointing down -Z.
func (s *Screw) Execute(o *Object) error {
	d := s.diameter
	headH, headR := s.def.headH*d, s.def.headD*d/2
	switch s.def.kind {
	case kindNut, kindWasher:
		ring := models.CylinderShape(models.Vector{}, headR, headH)
		hole := models.CylinderShape(models.Vector{}, d/2, headH)
		return o.Set("Shape", ring.Cut(hole))
	}
	head := models.CylinderShape(models.Vector{}, headR, headH)
	shank := models.CylinderShape(models.Vector{Z: -o.Float("Length")}, d/2, o.Float("Length"))
	return o.Set("Shape", head.Fuse(shank))
}
