package script

import (
	"context"
	"testing"

	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/cad/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func newRunner(t *testing.T) (*Runner, *document.App) {
	t.Helper()
	app := document.NewApp()
	app.NewDocument("Doc")
	d := dispatch.New(app, nil)
	return NewRunner(app, d, features.New(d, nil), nil), app
}

func TestExecuteCapturesPrint(t *testing.T) {
	r, _ := newRunner(t)
	out, err := r.Execute(context.Background(), `print("hello", 42) print(true)`)
	require.NoError(t, err)
	assert.Equal(t, "hello\t42\ntrue\n", out)
}

func TestExecuteErrorKeepsEarlierOutput(t *testing.T) {
	r, _ := newRunner(t)
	out, err := r.Execute(context.Background(), `print("before") error("boom")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error executing code:")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "before\n", out)

	_, err = r.Execute(context.Background(), `this is not lua`)
	assert.Error(t, err)
}

func TestCadModuleDrivesDocumentModel(t *testing.T) {
	r, app := newRunner(t)
	out, err := r.Execute(context.Background(), `
		local name = cad.create("Doc", {Name = "Box", Type = "Part::Box", Properties = {Length = 4, Height = 2}})
		cad.create("Doc", {Name = "Pin", Type = "Part::Cylinder", Properties = {Radius = 1, Height = 5}})
		local result = cad.boolean("Doc", "cut", name, "Pin")
		local box = cad.get("Doc", name)
		print(result, box.Properties.Length, box.ViewObject.Visibility)
		print(#cad.objects("Doc"))
	`)
	require.NoError(t, err)
	assert.Equal(t, "Cut_Box_Pin\t4\tfalse\n3\n", out)

	doc, _ := app.GetDocument("Doc")
	box, ok := doc.GetObject("Box")
	require.True(t, ok)
	assert.Equal(t, 4.0, box.Float("Length"))
}

func TestCadErrorsSurfaceAsScriptErrors(t *testing.T) {
	r, _ := newRunner(t)
	_, err := r.Execute(context.Background(), `cad.objects("Missing")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Document 'Missing' not found")

	out, err := r.Execute(context.Background(), `
		local ok, msg = pcall(cad.delete, "Doc", "Ghost")
		print(ok)
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestScriptsCanCreateDocumentsAndEdit(t *testing.T) {
	r, app := newRunner(t)
	_, err := r.Execute(context.Background(), `
		local doc = cad.new_document("Second")
		cad.create(doc, {Name = "Box", Type = "Part::Box"})
		local failed = cad.edit(doc, "Box", {Width = 7, Bogus = {1, 2}, Height = "tall"})
		print(failed)
	`)
	require.NoError(t, err)

	doc, ok := app.GetDocument("Second")
	require.True(t, ok)
	box, _ := doc.GetObject("Box")
	assert.Equal(t, 7.0, box.Float("Width"))
	assert.Equal(t, 10.0, box.Float("Height"))
}

func TestFromLua(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	require.NoError(t, L.DoString(`v = {1, "a", true, nested = nil}; m = {x = 1, list = {2, 3}}`))

	assert.Equal(t, []any{1.0, "a", true}, fromLua(L.GetGlobal("v")))
	assert.Equal(t, map[string]any{"x": 1.0, "list": []any{2.0, 3.0}}, fromLua(L.GetGlobal("m")))
	assert.Nil(t, fromLua(lua.LNil))
}

func TestToLuaRoundTrip(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	in := map[string]any{"Name": "Box", "Size": []float64{1, 2}, "Tags": []string{"a"}, "Count": 3}
	got := fromLua(toLua(L, in))
	assert.Equal(t, map[string]any{"Name": "Box", "Size": []any{1.0, 2.0}, "Tags": []any{"a"}, "Count": 3.0}, got)
}
