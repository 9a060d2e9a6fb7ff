// Package dispatch routes create/edit/delete requests to the document model.
//
// Creation picks a Strategy by type tag. Strategies are consulted in
// registration order and the generic strategy catches everything else.
// Every path finishes with a document recompute whose failures are logged
// and recorded on the objects, never returned.
package dispatch

import (
	"fmt"
	"log/slog"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/props"
	"cad-bridge/internal/common/logging"
)

// ============================================================
// Types
// ============================================================

// Request is a generic create-object call as it arrives on the wire.
type Request struct {
	Name       string         `json:"Name"`
	Type       string         `json:"Type"`
	Analysis   string         `json:"Analysis,omitempty"`
	Properties map[string]any `json:"Properties,omitempty"`
}

// Env is what a strategy may touch while creating an object.
type Env struct {
	App    *document.App
	Doc    *document.Document
	Logger *slog.Logger
}

// Outcome is a created or edited object plus the property writes that
// failed along the way.
type Outcome struct {
	Object         *document.Object
	PropertyErrors []error
}

// Warnings renders the property failures for a result payload.
func (o Outcome) Warnings() []string {
	out := make([]string, len(o.PropertyErrors))
	for i, err := range o.PropertyErrors {
		out[i] = err.Error()
	}
	return out
}

type Strategy interface {
	Name() string
	Match(req Request) bool
	Create(env *Env, req Request) (Outcome, error)
}

// DefaultObjectName is used when a create request carries no name.
const DefaultObjectName = "New_Object"

// ============================================================
// Dispatcher
// ============================================================

type Dispatcher struct {
	app        *document.App
	logger     *slog.Logger
	strategies []Strategy
	fallback   Strategy
}

// New returns a dispatcher with the built-in strategies registered:
// mesh generation, FEM family, fasteners, then the generic fallback.
func New(app *document.App, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	d := &Dispatcher{app: app, logger: logger, fallback: genericStrategy{}}
	d.Register(meshStrategy{})
	d.Register(femStrategy{})
	d.Register(fastenerStrategy{})
	return d
}

// Register appends a strategy; it is consulted after those already present.
func (d *Dispatcher) Register(s Strategy) {
	d.strategies = append(d.strategies, s)
}

func (d *Dispatcher) strategyFor(req Request) Strategy {
	for _, s := range d.strategies {
		if s.Match(req) {
			return s
		}
	}
	return d.fallback
}

// Document resolves a document by name.
func (d *Dispatcher) Document(name string) (*document.Document, error) {
	doc, ok := d.app.GetDocument(name)
	if !ok {
		return nil, caderr.DocumentNotFound(name, d.app.ListDocuments())
	}
	return doc, nil
}

// Create builds a new object in the named document.
func (d *Dispatcher) Create(docName string, req Request) (Outcome, error) {
	doc, err := d.Document(docName)
	if err != nil {
		return Outcome{}, err
	}
	if req.Name == "" {
		req.Name = DefaultObjectName
	}
	if err := CheckName(doc, req.Name); err != nil {
		return Outcome{}, err
	}
	if req.Properties == nil {
		req.Properties = map[string]any{}
	}

	strategy := d.strategyFor(req)
	env := &Env{App: d.app, Doc: doc, Logger: d.logger}
	out, err := strategy.Create(env, req)
	if err != nil {
		d.logger.Error("dispatch.create_failed",
			"document", doc.Name,
			"object", req.Name,
			"type", req.Type,
			"strategy", strategy.Name(),
			"error", err.Error(),
		)
		return Outcome{}, fmt.Errorf("failed to create object '%s': %w", req.Name, err)
	}
	d.recompute(doc)
	d.logger.Info("dispatch.object_created",
		"document", doc.Name,
		"object", out.Object.Name,
		"type", out.Object.TypeID,
		"strategy", strategy.Name(),
	)
	return out, nil
}

// CheckName fails when name cannot be used verbatim for a new object in
// doc: it would be sanitized, or it is taken.
func CheckName(doc *document.Document, name string) error {
	if !document.ValidName(name) {
		return &caderr.ValidationError{
			Field:  "object name",
			Value:  name,
			Detail: "Names may only contain letters, digits and underscores and must not start with a digit.",
		}
	}
	if _, taken := doc.GetObject(name); taken {
		return &caderr.ExistsError{Name: name, Document: doc.Name}
	}
	return nil
}

// Edit applies properties to an existing object. The type strategy is not
// consulted again.
func (d *Dispatcher) Edit(docName, objName string, properties map[string]any) (Outcome, error) {
	doc, err := d.Document(docName)
	if err != nil {
		return Outcome{}, err
	}
	obj, ok := doc.GetObject(objName)
	if !ok {
		return Outcome{}, caderr.ObjectNotFound("Object", objName, doc.Name, doc.ObjectNames())
	}
	errs := props.Apply(d.logger, doc, obj, properties)
	d.recompute(doc)
	d.logger.Info("dispatch.object_edited", "document", doc.Name, "object", obj.Name, "failed_properties", len(errs))
	return Outcome{Object: obj, PropertyErrors: errs}, nil
}

func (d *Dispatcher) Delete(docName, objName string) error {
	doc, err := d.Document(docName)
	if err != nil {
		return err
	}
	if _, ok := doc.GetObject(objName); !ok {
		return caderr.ObjectNotFound("Object", objName, doc.Name, doc.ObjectNames())
	}
	if err := doc.RemoveObject(objName); err != nil {
		return err
	}
	d.recompute(doc)
	d.logger.Info("dispatch.object_deleted", "document", doc.Name, "object", objName)
	return nil
}

// Recompute re-evaluates doc; failures are logged only.
func (d *Dispatcher) Recompute(doc *document.Document) {
	d.recompute(doc)
}

func (d *Dispatcher) recompute(doc *document.Document) {
	if err := doc.Recompute(); err != nil {
		d.logger.Warn("dispatch.recompute_failed", "document", doc.Name, "error", err.Error())
	}
}
