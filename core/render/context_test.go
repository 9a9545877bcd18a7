package render_test

import (
	"testing"
	"time"

	"spoolsync/core/render"
	"spoolsync/core/spoolman"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext_FilamentFields(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, 12, ctx["id"])
	assert.Equal(t, "Galaxy Black", ctx["name"])
	assert.Equal(t, "PLA", ctx["material"])
	assert.Equal(t, 1.24, ctx["density"])
	assert.Equal(t, 215, ctx["settings_extruder_temp"])
	assert.Equal(t, "2b2b2b", ctx["color_hex"])

	vendor, ok := ctx["vendor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Prusament", vendor["name"])
}

func TestBuildContext_ReservedNamespace(t *testing.T) {
	ctx := testContext()

	sm2s, ok := ctx["sm2s"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "spoolsync", sm2s["name"])
	assert.Equal(t, "0.1.0", sm2s["version"])
	assert.Equal(t, "Tue Nov 14 22:13:20 2023", sm2s["now"])
	assert.Equal(t, int64(1700000000), sm2s["now_int"])
	assert.Equal(t, "ini", sm2s["slicer_suffix"])
	assert.Equal(t, "", sm2s["variant"])
	assert.Equal(t, "http://localhost:7912", sm2s["spoolman_url"])
}

func TestBuildContext_NilVendorAndSpool(t *testing.T) {
	ctx := render.BuildContext(&spoolman.Filament{ID: 1}, nil, render.Meta{Now: time.Unix(0, 0)})

	vendor, ok := ctx["vendor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "", vendor["name"])

	spool, ok := ctx["spool"].(map[string]any)
	require.True(t, ok)
	assert.Empty(t, spool)
}

func TestBuildContext_SpoolFields(t *testing.T) {
	ctx := render.BuildContext(
		&spoolman.Filament{ID: 1},
		&spoolman.Spool{ID: 7, RemainingWeight: 412.5, Location: "shelf A"},
		render.Meta{Now: time.Unix(0, 0)},
	)

	spool, ok := ctx["spool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 7, spool["id"])
	assert.Equal(t, 412.5, spool["remaining_weight"])
	assert.Equal(t, "shelf A", spool["location"])
}

func TestBuildContext_ExtraValuesDecoded(t *testing.T) {
	ctx := render.BuildContext(
		&spoolman.Filament{ID: 1, Extra: map[string]string{
			"pressure_advance": `"0.042"`, // JSON string, stays a string
			"max_volumetric":   "12.5",    // JSON number, becomes float64
			"walls":            "3",
			"plain":            "raw",
		}},
		nil,
		render.Meta{Now: time.Unix(0, 0)},
	)

	extra, ok := ctx["extra"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0.042", extra["pressure_advance"])
	assert.Equal(t, 12.5, extra["max_volumetric"])
	assert.Equal(t, float64(3), extra["walls"])
	assert.Equal(t, "raw", extra["plain"])
}
