package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed templates
var embedded embed.FS

const partialsGlob = "partials/*.html"

var (
	// ErrTemplateNotFound is returned for an unknown template ID.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrRenderFailed wraps template execution failures.
	ErrRenderFailed = errors.New("template rendering failed")
)

// Renderer turns a template ID and a context map into an HTML body.
type Renderer interface {
	Render(ctx context.Context, templateID string, data map[string]any) (string, error)
}

// TemplateRenderer renders html/template files parsed once at construction.
// Template IDs are slash-separated paths relative to the template root,
// e.g. "alerts/overtime_alert.html".
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewEmbeddedRenderer loads the templates compiled into the binary.
func NewEmbeddedRenderer() (*TemplateRenderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	return NewTemplateRenderer(sub)
}

// NewTemplateRenderer parses every .html file in fsys. Files under partials/
// are shared by all templates and are not renderable on their own.
func NewTemplateRenderer(fsys fs.FS) (*TemplateRenderer, error) {
	partials, err := fs.Glob(fsys, partialsGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list partials: %w", err)
	}

	r := &TemplateRenderer{templates: make(map[string]*template.Template)}

	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(p) != ".html" || strings.HasPrefix(p, "partials/") {
			return nil
		}

		t := template.New(path.Base(p)).Funcs(funcs).Option("missingkey=error")
		if len(partials) > 0 {
			if t, err = t.ParseFS(fsys, partialsGlob); err != nil {
				return fmt.Errorf("failed to parse partials for %s: %w", p, err)
			}
		}
		if t, err = t.ParseFS(fsys, p); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		r.templates[p] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Render executes the template identified by templateID against data.
func (r *TemplateRenderer) Render(ctx context.Context, templateID string, data map[string]any) (string, error) {
	t, ok := r.templates[templateID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, path.Base(templateID), data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, templateID, err)
	}
	return buf.String(), nil
}

// TemplateIDs lists the renderable templates in lexical order.
func (r *TemplateRenderer) TemplateIDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var funcs = template.FuncMap{
	"hours": func(h float64) string { return fmt.Sprintf("%.1f", h) },
}
