// Package script is the code-execution escape hatch: an unrestricted Lua
// state with a `cad` module bound to the live document model. It must only
// run on the bridge pump goroutine.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"
	"cad-bridge/internal/common/logging"

	lua "github.com/yuin/gopher-lua"
)

type Runner struct {
	app      *document.App
	dispatch *dispatch.Dispatcher
	features *features.Commands
	logger   *slog.Logger
}

func NewRunner(app *document.App, d *dispatch.Dispatcher, f *features.Commands, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Runner{app: app, dispatch: d, features: f, logger: logger}
}

// Execute runs code in a fresh state and returns everything it printed.
// Output written before a failure is returned alongside the error.
func (r *Runner) Execute(ctx context.Context, code string) (string, error) {
	var out strings.Builder

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				out.WriteByte('\t')
			}
			out.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		out.WriteByte('\n')
		return 0
	}))
	L.PreloadModule("cad", r.loader)
	if err := L.DoString(`cad = require("cad")`); err != nil {
		return "", err
	}

	if err := L.DoString(code); err != nil {
		msg := err.Error()
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && apiErr.Object != nil {
			msg = apiErr.Object.String()
		}
		r.logger.Error("script.failed", "error", msg, "output_bytes", out.Len())
		return out.String(), fmt.Errorf("Error executing code: %s", msg)
	}
	r.logger.Info("script.executed", "output_bytes", out.Len())
	return out.String(), nil
}

// ============================================================
// cad module
// ============================================================

func (r *Runner) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"documents":    r.luaDocuments,
		"new_document": r.luaNewDocument,
		"objects":      r.luaObjects,
		"get":          r.luaGet,
		"create":       r.luaCreate,
		"edit":         r.luaEdit,
		"delete":       r.luaDelete,
		"recompute":    r.luaRecompute,
		"boolean":      r.luaBoolean,
		"workbenches":  r.luaWorkbenches,
		"log":          r.luaLog,
	})
	L.Push(mod)
	return 1
}

func (r *Runner) luaDocuments(L *lua.LState) int {
	L.Push(toLua(L, r.app.ListDocuments()))
	return 1
}

func (r *Runner) luaNewDocument(L *lua.LState) int {
	doc := r.app.NewDocument(L.OptString(1, "Unnamed"))
	L.Push(lua.LString(doc.Name))
	return 1
}

func (r *Runner) luaObjects(L *lua.LState) int {
	doc := r.document(L, 1)
	L.Push(toLua(L, doc.ObjectNames()))
	return 1
}

func (r *Runner) luaGet(L *lua.LState) int {
	doc := r.document(L, 1)
	obj, ok := doc.GetObject(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, document.Serialize(obj)))
	return 1
}

// cad.create(doc, {Name=..., Type=..., Analysis=..., Properties={...}})
func (r *Runner) luaCreate(L *lua.LState) int {
	docName := L.CheckString(1)
	spec, _ := fromLua(L.CheckTable(2)).(map[string]any)
	req := dispatch.Request{
		Name:     stringField(spec, "Name"),
		Type:     stringField(spec, "Type"),
		Analysis: stringField(spec, "Analysis"),
	}
	if p, ok := spec["Properties"].(map[string]any); ok {
		req.Properties = p
	}
	out, err := r.dispatch.Create(docName, req)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	r.warn(out)
	L.Push(lua.LString(out.Object.Name))
	return 1
}

func (r *Runner) luaEdit(L *lua.LState) int {
	properties, _ := fromLua(L.CheckTable(3)).(map[string]any)
	out, err := r.dispatch.Edit(L.CheckString(1), L.CheckString(2), properties)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	r.warn(out)
	L.Push(lua.LNumber(len(out.PropertyErrors)))
	return 1
}

func (r *Runner) luaDelete(L *lua.LState) int {
	if err := r.dispatch.Delete(L.CheckString(1), L.CheckString(2)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (r *Runner) luaRecompute(L *lua.LState) int {
	r.dispatch.Recompute(r.document(L, 1))
	return 0
}

// cad.boolean(doc, op, base, tool[, result[, keep]])
func (r *Runner) luaBoolean(L *lua.LState) int {
	res, err := r.features.BooleanOperation(
		L.CheckString(1), L.CheckString(2), L.CheckString(3), L.CheckString(4),
		L.OptString(5, ""), L.OptBool(6, false),
	)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(res.ResultObject))
	return 1
}

func (r *Runner) luaWorkbenches(L *lua.LState) int {
	L.Push(toLua(L, r.app.ListWorkbenches()))
	return 1
}

func (r *Runner) luaLog(L *lua.LState) int {
	r.logger.Info("script.log", "message", L.CheckString(1))
	return 0
}

func (r *Runner) document(L *lua.LState, n int) *document.Document {
	doc, err := r.dispatch.Document(L.CheckString(n))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return doc
}

func (r *Runner) warn(out dispatch.Outcome) {
	for _, msg := range out.Warnings() {
		r.logger.Warn("script.property_failed", "object", out.Object.Name, "error", msg)
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
