package document

import (
	"fmt"
	"sort"
)

// ============================================================
// Application
// ============================================================

// FastenerFactory builds fastener geometry onto a feature-python object.
type FastenerFactory interface {
	Types() []string
	Build(obj *Object, fastenerType string, attachTo *Object, diameter, length string) error
}

// Mesher generates a finite-element mesh for a mesh object.
type Mesher interface {
	Generate(mesh *Object) error
}

// App is the host application: open documents, workbenches and add-on
// capabilities. Like Document it belongs to the GUI goroutine.
type App struct {
	Fasteners FastenerFactory
	Mesher    Mesher

	documents   []*Document
	byName      map[string]*Document
	active      *Document
	workbenches map[string]string
	activeWB    string
}

// Workbenches shipped with the host.
var builtinWorkbenches = map[string]string{
	"PartWorkbench":        "Part",
	"PartDesignWorkbench":  "Part Design",
	"SketcherWorkbench":    "Sketcher",
	"DraftWorkbench":       "Draft",
	"FemWorkbench":         "FEM",
	"MeshWorkbench":        "Mesh Design",
	"SpreadsheetWorkbench": "Spreadsheet",
	"TechDrawWorkbench":    "TechDraw",
	"NoneWorkbench":        "<none>",
}

const FastenersWorkbench = "FastenersWorkbench"

func NewApp() *App {
	app := &App{
		byName:      make(map[string]*Document),
		workbenches: make(map[string]string, len(builtinWorkbenches)),
		activeWB:    "NoneWorkbench",
		Mesher:      &GmshMesher{},
	}
	for name, menu := range builtinWorkbenches {
		app.workbenches[name] = menu
	}
	return app
}

// NewDocument creates a document; a taken name gets a numeric suffix.
// The new document becomes active.
func (a *App) NewDocument(name string) *Document {
	if name == "" {
		name = "Unnamed"
	}
	base := SanitizeName(name, "")
	unique := base
	for i := 1; a.byName[unique] != nil; i++ {
		unique = fmt.Sprintf("%s%d", base, i)
	}
	doc := newDocument(unique)
	a.documents = append(a.documents, doc)
	a.byName[unique] = doc
	a.active = doc
	return doc
}

func (a *App) GetDocument(name string) (*Document, bool) {
	doc, ok := a.byName[name]
	return doc, ok
}

// ListDocuments returns document names in creation order.
func (a *App) ListDocuments() []string {
	names := make([]string, len(a.documents))
	for i, d := range a.documents {
		names[i] = d.Name
	}
	return names
}

func (a *App) CloseDocument(name string) error {
	doc, ok := a.byName[name]
	if !ok {
		return fmt.Errorf("unknown document '%s'", name)
	}
	delete(a.byName, name)
	for i, d := range a.documents {
		if d == doc {
			a.documents = append(a.documents[:i], a.documents[i+1:]...)
			break
		}
	}
	if a.active == doc {
		a.active = nil
		if n := len(a.documents); n > 0 {
			a.active = a.documents[n-1]
		}
	}
	return nil
}

// ActiveDocument returns the active document, nil when none is open.
func (a *App) ActiveDocument() *Document {
	return a.active
}

func (a *App) SetActiveDocument(name string) error {
	doc, ok := a.byName[name]
	if !ok {
		return fmt.Errorf("unknown document '%s'", name)
	}
	a.active = doc
	return nil
}

// ============================================================
// Workbenches
// ============================================================

// RegisterWorkbench makes an add-on workbench available.
func (a *App) RegisterWorkbench(name, menuText string) {
	a.workbenches[name] = menuText
}

// ListWorkbenches returns the available workbench names, sorted.
func (a *App) ListWorkbenches() []string {
	names := make([]string, 0, len(a.workbenches))
	for name := range a.workbenches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *App) HasWorkbench(name string) bool {
	_, ok := a.workbenches[name]
	return ok
}

func (a *App) ActivateWorkbench(name string) error {
	if !a.HasWorkbench(name) {
		return fmt.Errorf("no such workbench '%s'", name)
	}
	a.activeWB = name
	return nil
}

func (a *App) ActiveWorkbench() string {
	return a.activeWB
}

// EnableFasteners installs the fasteners add-on: its workbench and factory.
func (a *App) EnableFasteners() {
	a.RegisterWorkbench(FastenersWorkbench, "Fasteners")
	a.Fasteners = NewScrewMaker()
}
