package render_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spoolsync/core/render"
	"spoolsync/core/spoolman"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResolver(t *testing.T, files map[string]string) *render.Resolver {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "templates-superslicer")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return render.NewResolver(root, "superslicer")
}

func testContext() render.Context {
	return render.BuildContext(
		&spoolman.Filament{
			ID:                   12,
			Name:                 "Galaxy Black",
			Material:             "PLA",
			Density:              1.24,
			Diameter:             1.75,
			Weight:               1000,
			Price:                24.99,
			SettingsExtruderTemp: 215,
			SettingsBedTemp:      60,
			ColorHex:             "2b2b2b",
			Vendor:               &spoolman.Vendor{ID: 3, Name: "Prusament"},
			Extra:                map[string]string{"pressure_advance": `"0.042"`},
		},
		nil,
		render.Meta{
			ToolName:  "spoolsync",
			Version:   "0.1.0",
			Now:       time.Unix(1700000000, 0).UTC(),
			Suffix:    "ini",
			Variant:   "",
			SourceURL: "http://localhost:7912",
		},
	)
}

func TestResolve_MaterialSpecific(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"PLA.ini.template":     "pla",
		"default.ini.template": "generic",
	})

	tmpl, err := r.Resolve("PLA", "ini")
	require.NoError(t, err)
	assert.Equal(t, "PLA.ini.template", tmpl.Name())
}

func TestResolve_FallbackToDefault(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": "generic",
	})

	tmpl, err := r.Resolve("PLA", "ini")
	require.NoError(t, err)
	assert.Equal(t, "default.ini.template", tmpl.Name())
}

func TestResolve_NotFound(t *testing.T) {
	r := setupResolver(t, map[string]string{})

	_, err := r.Resolve("PLA", "ini")
	var nerr *render.NotFoundError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "superslicer", nerr.Slicer)
	assert.Equal(t, []string{"PLA.ini.template", "default.ini.template"}, nerr.Tried)
}

func TestResolve_MaterialNameCannotEscapeDir(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": "generic",
	})

	// A material containing path separators falls through to the default.
	tmpl, err := r.Resolve("../evil", "ini")
	require.NoError(t, err)
	assert.Equal(t, "default.ini.template", tmpl.Name())
}

func TestRender_RoundTrip(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": "temp={{ .settings_extruder_temp }}",
	})

	tmpl, err := r.Resolve("PLA", "ini")
	require.NoError(t, err)

	ctx := render.BuildContext(
		&spoolman.Filament{ID: 1, Material: "PLA", SettingsExtruderTemp: 200},
		nil,
		render.Meta{Now: time.Unix(1700000000, 0).UTC(), Suffix: "ini"},
	)

	out, err := tmpl.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, "temp=200", out)
}

func TestRender_DottedPathAndDefaults(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": `vendor={{ .vendor.name }} note={{ .comment | default "none" }} pa={{ get .extra "pressure_advance" | default "0.04" }}`,
	})

	tmpl, err := r.Resolve("", "ini")
	require.NoError(t, err)

	out, err := tmpl.Render(testContext())
	require.NoError(t, err)
	assert.Equal(t, `vendor=Prusament note=none pa=0.042`, out)
}

func TestRender_NumericExtraArithmetic(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": `limit={{ mulf (get .extra "max_volumetric") 2 }}`,
	})

	tmpl, err := r.Resolve("", "ini")
	require.NoError(t, err)

	ctx := render.BuildContext(
		&spoolman.Filament{ID: 1, Extra: map[string]string{"max_volumetric": "12.5"}},
		nil,
		render.Meta{Now: time.Unix(1700000000, 0).UTC(), Suffix: "ini"},
	)

	out, err := tmpl.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, "limit=25", out)
}

func TestRender_MissingVariable(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": "x={{ .does_not_exist }}",
	})

	tmpl, err := r.Resolve("", "ini")
	require.NoError(t, err)

	_, err = tmpl.Render(testContext())
	var rerr *render.RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "does_not_exist", rerr.Variable)
	assert.Equal(t, "default.ini.template", rerr.Template)
}

func TestRender_Deterministic(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": "{{ .name }}/{{ .vendor.name }}/{{ .sm2s.now_int }}",
	})

	tmpl, err := r.Resolve("", "ini")
	require.NoError(t, err)

	first, err := tmpl.Render(testContext())
	require.NoError(t, err)
	second, err := tmpl.Render(testContext())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_SuperSlicerGolden(t *testing.T) {
	r := setupResolver(t, map[string]string{
		"default.ini.template": `# Generated by {{ .sm2s.name }} {{ .sm2s.version }} from {{ .sm2s.spoolman_url }}
[filament:{{ .name }}]
filament_vendor = {{ .vendor.name }}
filament_type = {{ .material }}
filament_density = {{ .density }}
filament_diameter = {{ .diameter }}
filament_cost = {{ .price }}
temperature = {{ .settings_extruder_temp }}
bed_temperature = {{ .settings_bed_temp }}
filament_colour = #{{ .color_hex }}
filament_notes = "{{ .comment | default "imported from Spoolman" }}"
`,
	})

	tmpl, err := r.Resolve("", "ini")
	require.NoError(t, err)

	out, err := tmpl.Render(testContext())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "superslicer_ini", []byte(out))
}
