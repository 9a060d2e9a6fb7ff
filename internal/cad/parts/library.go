// Package parts serves the on-disk parts library: listing part files and
// inserting JSON parts into the active document.
package parts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cad-bridge/internal/cad/caderr"
	"cad-bridge/internal/cad/dispatch"
	"cad-bridge/internal/cad/document"
	"cad-bridge/internal/common/logging"
)

// Extensions recognised as library parts.
var Extensions = []string{".json", ".FCStd"}

// ============================================================
// Library
// ============================================================

type Library struct {
	root   string
	logger *slog.Logger
}

func NewLibrary(root string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Library{root: root, logger: logger}
}

func (l *Library) Root() string {
	return l.root
}

// Path resolves a library-relative path, refusing anything that escapes the
// library root.
func (l *Library) Path(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &caderr.ValidationError{Field: "part path", Value: rel, Detail: "Path must be relative to the parts library."}
	}
	return filepath.Join(l.root, clean), nil
}

func (l *Library) EnsureDir() error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("mkdir parts dir: %w", err)
	}
	return nil
}

// List returns every part file under the root as a slash-separated relative
// path, sorted. A missing root is an empty library.
func (l *Library) List() ([]string, error) {
	parts := []string{}
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == l.root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !isPart(path) {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		parts = append(parts, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	sort.Strings(parts)
	return parts, nil
}

func isPart(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// ============================================================
// Part files
// ============================================================

// File is a JSON part: an ordered list of create requests. Names that refer
// to objects defined earlier in the same file are rewritten when an insert
// has to rename them.
type File struct {
	Objects []dispatch.Request `json:"objects"`
}

// Load reads and decodes a library part. A bare JSON array of requests is
// accepted as well.
func (l *Library) Load(rel string) (*File, error) {
	path, err := l.Path(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			available, _ := l.List()
			return nil, &caderr.NotFoundError{Kind: "Part", Name: rel, Available: available, NoneHint: "The parts library is empty."}
		}
		return nil, fmt.Errorf("read part: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, &caderr.CapabilityError{
			Capability: "Importer for " + filepath.Ext(path),
			Guidance:   "Only JSON parts can be inserted.",
		}
	}

	var f File
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &f.Objects)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode part '%s': %w", rel, err)
	}
	if len(f.Objects) == 0 {
		return nil, &caderr.ValidationError{Field: "part", Value: rel, Detail: "The part defines no objects."}
	}
	return &f, nil
}

// Insert creates every object of a part in the active document and returns
// the created names. Creation stops at the first failing object; objects
// already created stay.
func (l *Library) Insert(app *document.App, d *dispatch.Dispatcher, rel string) ([]string, error) {
	f, err := l.Load(rel)
	if err != nil {
		return nil, err
	}
	doc := app.ActiveDocument()
	if doc == nil {
		return nil, errors.New("No active document. Create or open a document first.")
	}

	renamed := map[string]string{}
	created := make([]string, 0, len(f.Objects))
	for _, req := range f.Objects {
		req.Properties = rewriteNames(req.Properties, renamed)
		if req.Name == "" {
			req.Name = dispatch.DefaultObjectName
		}
		if fresh := freeName(doc, req.Name); fresh != req.Name {
			renamed[req.Name] = fresh
			req.Name = fresh
		}
		out, err := d.Create(doc.Name, req)
		if err != nil {
			return created, err
		}
		for _, w := range out.Warnings() {
			l.logger.Warn("parts.property_failed", "part", rel, "object", out.Object.Name, "error", w)
		}
		created = append(created, out.Object.Name)
	}
	l.logger.Info("parts.inserted", "part", rel, "document", doc.Name, "objects", len(created))
	return created, nil
}

func freeName(doc *document.Document, name string) string {
	if _, taken := doc.GetObject(name); !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%03d", name, i)
		if _, taken := doc.GetObject(candidate); !taken {
			return candidate
		}
	}
}

func rewriteNames(properties map[string]any, renamed map[string]string) map[string]any {
	if len(renamed) == 0 || properties == nil {
		return properties
	}
	out := make(map[string]any, len(properties))
	for k, v := range properties {
		if s, ok := v.(string); ok {
			if fresh, ok := renamed[s]; ok {
				v = fresh
			}
		}
		out[k] = v
	}
	return out
}
