package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const (
	// TemplateSuffix is the file extension of all template files.
	TemplateSuffix = ".template"

	// DefaultPrefix names the fallback template for a suffix,
	// e.g. "default.ini.template".
	DefaultPrefix = "default."
)

// NotFoundError indicates that neither a material-specific template nor
// the default template exists for a suffix.
type NotFoundError struct {
	// Slicer is the slicer identifier whose template dir was searched.
	Slicer string
	// Tried lists the template names looked up, in order.
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("render: no template for slicer %q (tried %s)",
		e.Slicer, strings.Join(e.Tried, ", "))
}

// RenderError indicates a template failed to render, typically because a
// required variable is missing and the template declares no default.
type RenderError struct {
	// Template is the template file name.
	Template string
	// Variable is the offending variable path when known, e.g. "vendor.name".
	Variable string
	// Err is the underlying template engine error.
	Err error
}

func (e *RenderError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("render: template %s: missing variable %q", e.Template, e.Variable)
	}
	return fmt.Sprintf("render: template %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Template is a compiled template ready for rendering.
type Template struct {
	name string
	tmpl *template.Template
}

// Name returns the template file name this template was loaded from.
func (t *Template) Name() string { return t.name }

// missingKeyRe extracts the failing variable from text/template exec errors.
var missingKeyRe = regexp.MustCompile(`at <\.?([^>]+)>: map has no entry for key`)

// Render executes the template against a context. Rendering an equal
// context always produces byte-identical output.
func (t *Template) Render(ctx Context) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, ctx); err != nil {
		re := &RenderError{Template: t.name, Err: err}
		if m := missingKeyRe.FindStringSubmatch(err.Error()); m != nil {
			re.Variable = m[1]
		}
		return "", re
	}
	return sb.String(), nil
}

// Resolver locates and compiles templates for one slicer. Compiled
// templates are cached for the resolver's lifetime; template files are
// not re-read once loaded.
//
// Templates execute with missingkey=error: referencing an absent map
// key fails the render before any pipeline function runs. Keys that may
// be absent, such as user-defined extra fields, must be read with get,
// e.g. {{ get .extra "key" | default "x" }}.
type Resolver struct {
	root   string
	slicer string

	mu    sync.Mutex
	cache map[string]*Template
}

// NewResolver creates a resolver over <root>/templates-<slicer>/.
func NewResolver(root, slicer string) *Resolver {
	return &Resolver{
		root:   root,
		slicer: slicer,
		cache:  make(map[string]*Template),
	}
}

// Dir returns the slicer's template directory.
func (r *Resolver) Dir() string {
	return filepath.Join(r.root, "templates-"+r.slicer)
}

// Resolve returns the template for a material and suffix, falling back to
// the suffix's default template. Returns *NotFoundError when neither
// exists.
func (r *Resolver) Resolve(material, suffix string) (*Template, error) {
	var tried []string

	if material != "" && material == filepath.Base(material) {
		name := material + "." + suffix + TemplateSuffix
		tried = append(tried, name)
		t, err := r.load(name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	name := DefaultPrefix + suffix + TemplateSuffix
	tried = append(tried, name)
	t, err := r.load(name)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Slicer: r.slicer, Tried: tried}
	}
	return nil, err
}

// ResolveName returns a template by exact file name, used for the
// reserved filename templates. Returns *NotFoundError when absent.
func (r *Resolver) ResolveName(name string) (*Template, error) {
	t, err := r.load(name)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Slicer: r.slicer, Tried: []string{name}}
	}
	return nil, err
}

func (r *Resolver) load(name string) (*Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache[name]; ok {
		return t, nil
	}

	path := filepath.Join(r.Dir(), name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return nil, &RenderError{Template: name, Err: err}
	}

	t := &Template{name: name, tmpl: tmpl}
	r.cache[name] = t
	return t, nil
}
