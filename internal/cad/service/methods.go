package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"
	"cad-bridge/internal/cad/models"
)

// ============================================================
// Documents & objects
// ============================================================

func (s *Service) ping(ctx context.Context, args Args) (Result, error) {
	return Result{"result": true}, nil
}

func (s *Service) createDocument(ctx context.Context, args Args) (Result, error) {
	name := args.String("name", "New_Document")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc := s.App.NewDocument(name)
		return Result{"document_name": doc.Name}, nil
	})
}

func (s *Service) listDocuments(ctx context.Context, args Args) (Result, error) {
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		return Result{"documents": s.App.ListDocuments()}, nil
	})
}

func (s *Service) getObjects(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc, err := s.Dispatch.Document(docName)
		if err != nil {
			return nil, err
		}
		objects := make([]map[string]any, 0, len(doc.Objects()))
		for _, obj := range doc.Objects() {
			objects = append(objects, document.Serialize(obj))
		}
		return Result{"objects": objects}, nil
	})
}

func (s *Service) getObject(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	objName, err := args.RequireString("obj_name")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc, err := s.Dispatch.Document(docName)
		if err != nil {
			return nil, err
		}
		obj, ok := doc.GetObject(objName)
		if !ok {
			return nil, caderr.ObjectNotFound("Object", objName, doc.Name, doc.ObjectNames())
		}
		return Result{"object": document.Serialize(obj)}, nil
	})
}

func (s *Service) createObject(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	data, err := args.Map("obj_data")
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, missing("obj_data")
	}
	req := dispatch.Request{
		Name:     Args(data).String("Name", dispatch.DefaultObjectName),
		Type:     Args(data).String("Type", ""),
		Analysis: Args(data).String("Analysis", ""),
	}
	if req.Type == "" {
		return nil, missing("obj_data.Type")
	}
	if req.Properties, err = Args(data).Map("Properties"); err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Dispatch.Create(docName, req)
		if err != nil {
			return nil, err
		}
		return withWarnings(Result{"object_name": out.Object.Name}, out), nil
	})
}

// editObject accepts the properties either bare or wrapped in a
// "Properties" key.
func (s *Service) editObject(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	objName, err := args.RequireString("obj_name")
	if err != nil {
		return nil, err
	}
	properties, err := args.Map("properties")
	if err != nil {
		return nil, err
	}
	if inner, ok := properties["Properties"].(map[string]any); ok {
		properties = inner
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Dispatch.Edit(docName, objName, properties)
		if err != nil {
			return nil, err
		}
		return withWarnings(Result{"object_name": out.Object.Name}, out), nil
	})
}

func (s *Service) deleteObject(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	objName, err := args.RequireString("obj_name")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		if err := s.Dispatch.Delete(docName, objName); err != nil {
			return nil, err
		}
		return Result{"object_name": objName}, nil
	})
}

// ============================================================
// Escape hatch, parts & workbenches
// ============================================================

func (s *Service) executeCode(ctx context.Context, args Args) (Result, error) {
	code, err := args.RequireString("code")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Runner.Execute(ctx, code)
		if err != nil {
			return nil, err
		}
		return Result{"message": "Code execution scheduled. \nOutput: " + out}, nil
	})
}

func (s *Service) insertPart(ctx context.Context, args Args) (Result, error) {
	rel, err := args.RequireString("relative_path")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		created, err := s.Library.Insert(s.App, s.Dispatch, rel)
		if err != nil && len(created) > 0 {
			return nil, fmt.Errorf("%w (objects created before the failure: %s)", err, strings.Join(created, ", "))
		}
		if err != nil {
			return nil, err
		}
		return Result{"message": "Part inserted from library.", "objects": created}, nil
	})
}

// partsList reads the library directory only, so it skips the pump.
func (s *Service) partsList(ctx context.Context, args Args) (Result, error) {
	list, err := s.Library.List()
	if err != nil {
		return nil, err
	}
	return Result{"parts": list}, nil
}

func (s *Service) activateWorkbench(ctx context.Context, args Args) (Result, error) {
	name, err := args.RequireString("workbench_name")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		if !s.App.HasWorkbench(name) {
			return nil, fmt.Errorf("Workbench '%s' not found. Available workbenches: %s",
				name, strings.Join(s.App.ListWorkbenches(), ", "))
		}
		if err := s.App.ActivateWorkbench(name); err != nil {
			return nil, fmt.Errorf("Failed to activate workbench '%s': %w", name, err)
		}
		s.Logger.Info("service.workbench_activated", "workbench", name)
		return Result{
			"message":   fmt.Sprintf("Workbench '%s' activated successfully", name),
			"workbench": name,
		}, nil
	})
}

func (s *Service) listWorkbenches(ctx context.Context, args Args) (Result, error) {
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		return Result{
			"workbenches": s.App.ListWorkbenches(),
			"active":      s.App.ActiveWorkbench(),
		}, nil
	})
}

// ============================================================
// Compound features
// ============================================================

func (s *Service) booleanOperation(ctx context.Context, args Args) (Result, error) {
	var names [4]string
	for i, key := range []string{"doc_name", "operation", "base_obj_name", "tool_obj_name"} {
		v, err := args.RequireString(key)
		if err != nil {
			return nil, err
		}
		names[i] = v
	}
	resultName := args.String("result_name", "")
	keep := args.Bool("keep_originals", false)
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		res, err := s.Features.BooleanOperation(names[0], names[1], names[2], names[3], resultName, keep)
		if err != nil {
			return nil, err
		}
		return Result{"result_object": res.ResultObject, "message": res.Message}, nil
	})
}

func (s *Service) createBox(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	var opts features.BoxOptions
	if opts.Length, err = args.Float("length", 10); err != nil {
		return nil, err
	}
	if opts.Width, err = args.Float("width", 10); err != nil {
		return nil, err
	}
	if opts.Height, err = args.Float("height", 10); err != nil {
		return nil, err
	}
	if opts.Position, err = args.Vector("position"); err != nil {
		return nil, err
	}
	if opts.Color, err = args.Floats("color"); err != nil {
		return nil, err
	}
	name := args.String("name", "Box")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Features.CreateBox(docName, name, opts)
		if err != nil {
			return nil, err
		}
		return withWarnings(Result{"object_name": out.Object.Name}, out), nil
	})
}

func (s *Service) createCylinder(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	var opts features.CylinderOptions
	if opts.Radius, err = args.Float("radius", 2); err != nil {
		return nil, err
	}
	if opts.Height, err = args.Float("height", 10); err != nil {
		return nil, err
	}
	if opts.Position, err = args.Vector("position"); err != nil {
		return nil, err
	}
	if args.Has("direction") {
		m, err := args.Map("direction")
		if err != nil {
			return nil, err
		}
		dir, err := Args(m).vectorDefault(models.Vector{Z: 1})
		if err != nil {
			return nil, err
		}
		opts.Direction = &dir
	}
	if opts.Color, err = args.Floats("color"); err != nil {
		return nil, err
	}
	name := args.String("name", "Cylinder")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Features.CreateCylinder(docName, name, opts)
		if err != nil {
			return nil, err
		}
		return withWarnings(Result{"object_name": out.Object.Name}, out), nil
	})
}

func (s *Service) createFastener(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	fastenerType, err := args.RequireString("fastener_type")
	if err != nil {
		return nil, err
	}
	opts := features.FastenerOptions{
		Type:     fastenerType,
		AttachTo: args.String("attach_to", ""),
		Diameter: args.String("diameter", "M4"),
		Length:   args.String("length", "10"),
	}
	if opts.Position, err = args.Vector("position"); err != nil {
		return nil, err
	}
	position, _ := args.Map("position")
	if position == nil {
		position = map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}
	}
	name := args.String("name", "Fastener")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		out, err := s.Features.CreateFastener(docName, name, opts)
		if err != nil {
			return nil, fmt.Errorf("Failed to create fastener: %w", err)
		}
		return withWarnings(Result{
			"object_name":   out.Object.Name,
			"fastener_type": fastenerType,
			"position":      position,
			"message":       fmt.Sprintf("Fastener '%s' created successfully", fastenerType),
		}, out), nil
	})
}

func (s *Service) createSketch(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	name := args.String("name", "Sketch")
	plane := strings.ToUpper(args.String("plane", "XY"))
	var origin models.Vector
	if v, err := args.Vector("origin"); err != nil {
		return nil, err
	} else if v != nil {
		origin = *v
	}
	body := args.String("body_name", "")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		sketchName, err := s.Features.CreateSketch(docName, name, plane, origin, body)
		if err != nil {
			return nil, err
		}
		return Result{
			"sketch_name": sketchName,
			"message":     fmt.Sprintf("Sketch created on %s plane", plane),
		}, nil
	})
}

func (s *Service) addSketchGeometry(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	sketchName, err := args.RequireString("sketch_name")
	if err != nil {
		return nil, err
	}
	specs, err := args.Maps("geometry")
	if err != nil {
		return nil, err
	}
	construction := args.Bool("construction", false)
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc, err := s.Dispatch.Document(docName)
		if err != nil {
			return nil, err
		}
		ids, err := s.Sketches.AddGeometry(doc, sketchName, specs, construction)
		if err != nil {
			return nil, err
		}
		return Result{
			"geometry_ids": ids,
			"message":      fmt.Sprintf("Added %d geometry elements", len(ids)),
		}, nil
	})
}

func (s *Service) addSketchConstraints(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	sketchName, err := args.RequireString("sketch_name")
	if err != nil {
		return nil, err
	}
	specs, err := args.Maps("constraints")
	if err != nil {
		return nil, err
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc, err := s.Dispatch.Document(docName)
		if err != nil {
			return nil, err
		}
		n, err := s.Sketches.AddConstraints(doc, sketchName, specs)
		if err != nil {
			return nil, err
		}
		return Result{
			"constraint_count": n,
			"message":          fmt.Sprintf("Added %d constraints", n),
		}, nil
	})
}

func (s *Service) createExtrusion(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	sketchName, err := args.RequireString("sketch_name")
	if err != nil {
		return nil, err
	}
	length, err := args.RequireFloat("length")
	if err != nil {
		return nil, err
	}
	name := args.String("name", "Pad")
	opts := features.PadOptions{
		Length:    length,
		Symmetric: args.Bool("symmetric", false),
		Reversed:  args.Bool("reversed", false),
		BodyName:  args.String("body_name", ""),
	}
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		padName, err := s.Features.CreateExtrusion(docName, name, sketchName, opts)
		if err != nil {
			return nil, fmt.Errorf("Failed to create extrusion: %w", err)
		}
		return Result{
			"object_name": padName,
			"message":     fmt.Sprintf("Extrusion created with length %gmm", length),
		}, nil
	})
}

func (s *Service) create2020Extrusion(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	opts := features.ProfileOptions{
		Direction:  args.String("direction", "Z"),
		Simplified: args.Bool("simplified", true),
		Variant:    args.String("profile_variant", "2020"),
	}
	if opts.Length, err = args.RequireFloat("length"); err != nil {
		return nil, err
	}
	if v, err := args.Vector("position"); err != nil {
		return nil, err
	} else if v != nil {
		opts.Position = *v
	}
	if args.Has("color") {
		if opts.Color, err = features.ColorComponents(args["color"]); err != nil {
			return nil, fmt.Errorf("argument 'color': %w", err)
		}
	}
	if opts.SealedRotation, err = args.Int("sealed_rotation", 0); err != nil {
		return nil, err
	}
	name := args.String("name", "Extrusion2020")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		res, err := s.Features.Create2020Extrusion(docName, name, opts)
		if err != nil {
			return nil, err
		}
		return Result{"object_name": res.ObjectName, "message": res.Message}, nil
	})
}

func (s *Service) batchPosition(ctx context.Context, args Args) (Result, error) {
	docName, err := args.RequireString("doc_name")
	if err != nil {
		return nil, err
	}
	names, err := args.Strings("objects")
	if err != nil {
		return nil, err
	}
	offset, err := args.Map("offset")
	if err != nil {
		return nil, err
	}
	position, err := args.Map("position")
	if err != nil {
		return nil, err
	}
	absolute := args.Bool("absolute", false)
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		res, err := s.Features.BatchPosition(docName, names, offset, position, absolute)
		if err != nil {
			return nil, err
		}
		return Result{
			"updated_count": res.Updated,
			"not_found":     res.NotFound,
			"message":       res.Message,
		}, nil
	})
}

// ============================================================
// View & journal
// ============================================================

func (s *Service) getView(ctx context.Context, args Args) (Result, error) {
	viewName := args.String("view_name", "Isometric")
	return s.onPump(ctx, func(ctx context.Context) (Result, error) {
		doc, err := s.activeDocument()
		if err != nil {
			return nil, err
		}
		svg, err := s.Renderer.Render(doc, viewName)
		if err != nil {
			return nil, err
		}
		return Result{"view_name": viewName, "document": doc.Name, "svg": svg}, nil
	})
}

// getJournal reads sqlite only, so it skips the pump.
func (s *Service) getJournal(ctx context.Context, args Args) (Result, error) {
	if s.Journal == nil {
		return nil, errors.New("The operation journal is disabled.")
	}
	limit, err := args.Int("limit", 50)
	if err != nil {
		return nil, err
	}
	entries, err := s.Journal.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{
			"id":          e.ID,
			"method":      e.Method,
			"success":     e.Success,
			"error":       e.Error,
			"duration_ms": float64(e.Duration.Microseconds()) / 1000,
			"created_at":  e.CreatedAt,
		}
	}
	return Result{"entries": out}, nil
}
