package engine

import (
	"path/filepath"
	"strings"

	"spoolsync/core/render"
)

const (
	// FilenameTemplate computes the output path for a filament.
	FilenameTemplate = "filename.template"

	// FilenameForSpoolTemplate computes the output path per spool, used
	// in per-spool "all" mode where one filament yields many files.
	FilenameForSpoolTemplate = "filename_for_spool.template"
)

// FilenameBuilder renders the reserved filename template and joins the
// result under the output directory. It guarantees the rendered name is
// a single path segment free of directory traversal.
type FilenameBuilder struct {
	resolver  *render.Resolver
	outputDir string
	template  string
}

// NewFilenameBuilder creates a builder for the output directory. When
// perSpool is true the spool-specific filename template is used.
func NewFilenameBuilder(resolver *render.Resolver, outputDir string, perSpool bool) *FilenameBuilder {
	name := FilenameTemplate
	if perSpool {
		name = FilenameForSpoolTemplate
	}
	return &FilenameBuilder{
		resolver:  resolver,
		outputDir: outputDir,
		template:  name,
	}
}

// TemplateName returns the filename template this builder renders.
func (b *FilenameBuilder) TemplateName() string { return b.template }

// BuildPath renders the filename template against ctx and returns the
// output path. Returns *render.NotFoundError, *render.RenderError or
// *InvalidFilenameError.
func (b *FilenameBuilder) BuildPath(ctx render.Context, filamentID int) (string, error) {
	tmpl, err := b.resolver.ResolveName(b.template)
	if err != nil {
		return "", err
	}

	name, err := tmpl.Render(ctx)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)

	if name == "" {
		return "", &InvalidFilenameError{Template: b.template, FilamentID: filamentID}
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || name == "." || name == ".." {
		return "", &InvalidFilenameError{Rendered: name, Template: b.template, FilamentID: filamentID}
	}

	return filepath.Join(b.outputDir, name), nil
}
