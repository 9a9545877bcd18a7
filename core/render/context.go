package render

import (
	"strconv"
	"strings"
	"time"

	"spoolsync/core/spoolman"
	"spoolsync/core/utils"
)

// Context is the full variable namespace exposed to a template for one
// render. It is built fresh per render and never mutated afterwards.
//
// Filament fields appear under their Spoolman JSON names at the top
// level, the vendor as a nested map, and the reserved "sm2s" namespace
// carries tool identity, timestamps, the target suffix and the active
// variant. The "spool" map is empty unless the render is for a specific
// spool.
type Context map[string]any

// Meta holds the values for the reserved sm2s namespace.
type Meta struct {
	// ToolName is the name of this tool as exposed to templates.
	ToolName string

	// Version is the tool version string.
	Version string

	// Now is the render timestamp. Exposed both human-readable and as
	// epoch seconds.
	Now time.Time

	// Suffix is the target output-file suffix for this render.
	Suffix string

	// Variant is the active variant label, empty when none.
	Variant string

	// SourceURL is the Spoolman installation the data came from.
	SourceURL string
}

// BuildContext assembles the render namespace for one
// (filament, spool, variant, suffix) combination. spool may be nil.
func BuildContext(f *spoolman.Filament, spool *spoolman.Spool, meta Meta) Context {
	ctx := Context{
		"id":                     f.ID,
		"name":                   f.Name,
		"material":               f.Material,
		"density":                f.Density,
		"diameter":               f.Diameter,
		"weight":                 f.Weight,
		"spool_weight":           f.SpoolWeight,
		"price":                  f.Price,
		"settings_extruder_temp": f.SettingsExtruderTemp,
		"settings_bed_temp":      f.SettingsBedTemp,
		"color_hex":              f.ColorHex,
		"article_number":         f.ArticleNumber,
		"comment":                f.Comment,
		"registered":             f.Registered,
		"extra":                  extraMap(f.Extra),
		"vendor":                 vendorMap(f.Vendor),
		"spool":                  spoolMap(spool),
		"sm2s": map[string]any{
			"name":          meta.ToolName,
			"version":       meta.Version,
			"now":           meta.Now.Format(time.ANSIC),
			"now_int":       meta.Now.Unix(),
			"slicer_suffix": meta.Suffix,
			"variant":       meta.Variant,
			"spoolman_url":  meta.SourceURL,
		},
	}
	return ctx
}

func vendorMap(v *spoolman.Vendor) map[string]any {
	if v == nil {
		return map[string]any{
			"id":    0,
			"name":  "",
			"extra": map[string]any{},
		}
	}
	return map[string]any{
		"id":         v.ID,
		"name":       v.Name,
		"comment":    v.Comment,
		"registered": v.Registered,
		"extra":      extraMap(v.Extra),
	}
}

func spoolMap(s *spoolman.Spool) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"id":               s.ID,
		"remaining_weight": s.RemainingWeight,
		"used_weight":      s.UsedWeight,
		"archived":         s.Archived,
		"first_used":       s.FirstUsed,
		"last_used":        s.LastUsed,
		"registered":       s.Registered,
		"price":            s.Price,
		"location":         s.Location,
		"lot_nr":           s.LotNr,
		"comment":          s.Comment,
		"extra":            extraMap(s.Extra),
	}
}

// extraMap decodes Spoolman's JSON-encoded extra field values. The
// values are typed any so sprig's map helpers accept the result.
func extraMap(extra map[string]string) map[string]any {
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = extraValue(v)
	}
	return out
}

// extraValue decodes one extra value. Quoted JSON strings are unquoted;
// JSON numbers become float64 so templates can compare and compute with
// them; anything else passes through as a string.
func extraValue(raw string) any {
	if strings.HasPrefix(raw, `"`) {
		return utils.UnquoteExtra(raw)
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return utils.ToFloat(raw)
	}
	return raw
}
