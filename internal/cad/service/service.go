// Package service is the remote surface of the bridge: one method per
// operation, each returning a {success, ...} map. Anything touching the
// document model runs as a task on the bridge pump; Call never returns a Go
// error to the transport.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cad-bridge/internal/cad/bridge"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"
	"cad-bridge/internal/cad/journal"
	"cad-bridge/internal/cad/parts"
	"cad-bridge/internal/cad/script"
	"cad-bridge/internal/cad/sketch"
	"cad-bridge/internal/cad/view"
	"cad-bridge/internal/common/logging"
)

// ============================================================
// Types
// ============================================================

// Result is the payload of a successful call; Call adds "success".
type Result map[string]any

type Method func(ctx context.Context, args Args) (Result, error)

// Deps wires the service. Journal may be nil.
type Deps struct {
	Bridge   *bridge.Bridge
	App      *document.App
	Dispatch *dispatch.Dispatcher
	Features *features.Commands
	Sketches *sketch.Builder
	Runner   *script.Runner
	Library  *parts.Library
	Renderer *view.Renderer
	Journal  *journal.Journal
	Logger   *slog.Logger
}

type Service struct {
	Deps
	methods map[string]Method
}

func New(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	s := &Service{Deps: deps}
	s.methods = map[string]Method{
		"ping":                     s.ping,
		"create_document":          s.createDocument,
		"list_documents":           s.listDocuments,
		"get_objects":              s.getObjects,
		"get_object":               s.getObject,
		"create_object":            s.createObject,
		"edit_object":              s.editObject,
		"delete_object":            s.deleteObject,
		"execute_code":             s.executeCode,
		"insert_part_from_library": s.insertPart,
		"get_parts_list":           s.partsList,
		"activate_workbench":       s.activateWorkbench,
		"list_workbenches":         s.listWorkbenches,
		"boolean_operation":        s.booleanOperation,
		"create_box":               s.createBox,
		"create_cylinder":          s.createCylinder,
		"create_fastener":          s.createFastener,
		"create_sketch":            s.createSketch,
		"add_sketch_geometry":      s.addSketchGeometry,
		"add_sketch_constraints":   s.addSketchConstraints,
		"create_extrusion":         s.createExtrusion,
		"create_2020_extrusion":    s.create2020Extrusion,
		"batch_position":           s.batchPosition,
		"get_view":                 s.getView,
		"get_journal":              s.getJournal,
	}
	return s
}

// Methods lists the callable method names, sorted.
func (s *Service) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ============================================================
// Call
// ============================================================

// Call runs one method and always returns a result map.
func (s *Service) Call(ctx context.Context, method string, args Args) map[string]any {
	if args == nil {
		args = Args{}
	}
	fn, ok := s.methods[method]
	if !ok {
		return failure(fmt.Errorf("Unknown method '%s'. Available methods: %s", method, strings.Join(s.Methods(), ", ")))
	}

	start := time.Now()
	res, err := fn(ctx, args)
	elapsed := time.Since(start)

	if method != "get_journal" {
		s.record(ctx, method, err, elapsed)
	}
	if err != nil {
		s.Logger.Warn("service.call_failed", "method", method, "error", err.Error(), "duration", elapsed.String())
		return failure(err)
	}
	s.Logger.Debug("service.call", "method", method, "duration", elapsed.String())

	out := make(map[string]any, len(res)+1)
	for k, v := range res {
		out[k] = v
	}
	out["success"] = true
	return out
}

func failure(err error) map[string]any {
	return map[string]any{"success": false, "error": err.Error()}
}

func (s *Service) record(ctx context.Context, method string, callErr error, elapsed time.Duration) {
	if s.Journal == nil {
		return
	}
	e := journal.Entry{Method: method, Success: callErr == nil, Duration: elapsed}
	if callErr != nil {
		e.Error = callErr.Error()
	}
	if err := s.Journal.Record(context.WithoutCancel(ctx), e); err != nil {
		s.Logger.Error("service.journal_failed", "method", method, "error", err.Error())
	}
}

// onPump runs fn on the bridge pump and waits for its result.
func (s *Service) onPump(ctx context.Context, fn func(ctx context.Context) (Result, error)) (Result, error) {
	v, err := s.Bridge.Submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	res, _ := v.(Result)
	return res, nil
}

func (s *Service) activeDocument() (*document.Document, error) {
	doc := s.App.ActiveDocument()
	if doc == nil {
		return nil, errors.New("No active document. Create or open a document first.")
	}
	return doc, nil
}

func withWarnings(res Result, out dispatch.Outcome) Result {
	if w := out.Warnings(); len(w) > 0 {
		res["warnings"] = w
	}
	return res
}
