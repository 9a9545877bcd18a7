package engine_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spoolsync/core/engine"
	"spoolsync/core/render"
	"spoolsync/core/spoolman"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filenameContext(name string) render.Context {
	return render.BuildContext(
		&spoolman.Filament{ID: 1, Name: name, Material: "PLA"},
		nil,
		render.Meta{
			ToolName: engine.ToolName,
			Version:  engine.Version,
			Now:      time.Unix(1700000000, 0).UTC(),
			Suffix:   "ini",
		},
	)
}

func newBuilder(t *testing.T, filenameTemplate string) *engine.FilenameBuilder {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "templates-superslicer")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, engine.FilenameTemplate), []byte(filenameTemplate), 0o644))

	resolver := render.NewResolver(root, "superslicer")
	return engine.NewFilenameBuilder(resolver, "/out", false)
}

func TestFilenameBuilder_BuildPath(t *testing.T) {
	b := newBuilder(t, "{{ .name }}.{{ .sm2s.slicer_suffix }}\n")

	path, err := b.BuildPath(filenameContext("PLA Red"), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "PLA Red.ini"), path)
}

func TestFilenameBuilder_EmptyName(t *testing.T) {
	b := newBuilder(t, "{{ if false }}x{{ end }}")

	_, err := b.BuildPath(filenameContext("PLA Red"), 7)
	var ierr *engine.InvalidFilenameError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, 7, ierr.FilamentID)
}

func TestFilenameBuilder_RejectsPathSeparators(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"slash", "sub/{{ .name }}.ini"},
		{"backslash", `sub\{{ .name }}.ini`},
		{"traversal", "../{{ .name }}.ini"},
		{"dotdot", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder(t, tt.template)
			_, err := b.BuildPath(filenameContext("PLA Red"), 1)
			var ierr *engine.InvalidFilenameError
			assert.True(t, errors.As(err, &ierr))
		})
	}
}

func TestFilenameBuilder_MissingTemplate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates-superslicer"), 0o755))

	resolver := render.NewResolver(root, "superslicer")
	b := engine.NewFilenameBuilder(resolver, "/out", false)

	_, err := b.BuildPath(filenameContext("PLA Red"), 1)
	var nerr *render.NotFoundError
	assert.True(t, errors.As(err, &nerr))
}

func TestFilenameBuilder_PerSpoolTemplateName(t *testing.T) {
	resolver := render.NewResolver(t.TempDir(), "superslicer")
	assert.Equal(t, engine.FilenameTemplate, engine.NewFilenameBuilder(resolver, "/out", false).TemplateName())
	assert.Equal(t, engine.FilenameForSpoolTemplate, engine.NewFilenameBuilder(resolver, "/out", true).TemplateName())
}
