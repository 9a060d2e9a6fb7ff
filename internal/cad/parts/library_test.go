package parts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bracket = `{"objects": [
	{"Name": "Plate", "Type": "Part::Box", "Properties": {"Length": 40, "Width": 20, "Height": 3}},
	{"Name": "Hole", "Type": "Part::Cylinder", "Properties": {"Radius": 2, "Height": 3}},
	{"Name": "Bracket", "Type": "Part::Cut", "Properties": {"Base": "Plate", "Tool": "Hole"}}
]}`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListFindsPartFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "brackets/l.json", bracket)
	writeFile(t, root, "screws/m3.FCStd", "zip")
	writeFile(t, root, "README.md", "docs")

	got, err := NewLibrary(root, nil).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"brackets/l.json", "screws/m3.FCStd"}, got)

	got, err = NewLibrary(filepath.Join(root, "missing"), nil).List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPathRejectsEscapes(t *testing.T) {
	lib := NewLibrary("/parts", nil)
	for _, rel := range []string{"", "../etc/passwd", "/abs.json", "a/../../b.json"} {
		_, err := lib.Path(rel)
		assert.Error(t, err, rel)
	}
	path, err := lib.Path("a/b.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/parts", "a", "b.json"), path)
}

func TestInsertCreatesObjectsInActiveDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bracket.json", bracket)
	app := document.NewApp()
	app.NewDocument("Doc")
	d := dispatch.New(app, nil)
	lib := NewLibrary(root, nil)

	created, err := lib.Insert(app, d, "bracket.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Plate", "Hole", "Bracket"}, created)

	created, err = lib.Insert(app, d, "bracket.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Plate001", "Hole001", "Bracket001"}, created)

	doc, _ := app.GetDocument("Doc")
	cut, ok := doc.GetObject("Bracket001")
	require.True(t, ok)
	assert.Equal(t, "Plate001", cut.Link("Base").Name)
	assert.Equal(t, "Hole001", cut.Link("Tool").Name)
	assert.Empty(t, cut.Error())
}

func TestInsertErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.json", bracket)
	writeFile(t, root, "b.FCStd", "zip")
	writeFile(t, root, "empty.json", `[]`)
	lib := NewLibrary(root, nil)

	app := document.NewApp()
	d := dispatch.New(app, nil)
	_, err := lib.Insert(app, d, "a.json")
	assert.EqualError(t, err, "No active document. Create or open a document first.")

	app.NewDocument("Doc")
	_, err = lib.Insert(app, d, "nope.json")
	require.True(t, caderr.IsNotFound(err))
	assert.Contains(t, err.Error(), "a.json, b.FCStd, empty.json")

	_, err = lib.Insert(app, d, "b.FCStd")
	var cerr *caderr.CapabilityError
	assert.True(t, errors.As(err, &cerr))

	_, err = lib.Insert(app, d, "empty.json")
	var verr *caderr.ValidationError
	assert.True(t, errors.As(err, &verr))
}
