package engine

import (
	"fmt"
	"strings"
	"time"
)

// ToolName is the name exposed to templates in the sm2s namespace.
const ToolName = "spoolsync"

// Version is the tool version exposed to templates. Overridden at build
// time via -ldflags.
var Version = "0.1.0"

// Supported slicer identifiers.
const (
	SlicerOrca   = "orcaslicer"
	SlicerPrusa  = "prusaslicer"
	SlicerSlic3r = "slic3r"
	SlicerSuper  = "superslicer"
)

// Per-spool enumeration modes.
const (
	PerSpoolAll        = "all"
	PerSpoolLeastLeft  = "least-left"
	PerSpoolMostRecent = "most-recent"
)

// SuffixesForSlicer returns the output-file suffixes a slicer requires.
// The ini family writes one file per filament, OrcaSlicer a json/info pair.
func SuffixesForSlicer(slicer string) ([]string, error) {
	switch slicer {
	case SlicerSuper, SlicerPrusa, SlicerSlic3r:
		return []string{"ini"}, nil
	case SlicerOrca:
		return []string{"json", "info"}, nil
	default:
		return nil, fmt.Errorf("engine: unsupported slicer %q", slicer)
	}
}

// Config holds configuration for the reconciliation engine.
type Config struct {
	// OutputDir is the slicer's filament config directory.
	OutputDir string `mapstructure:"output_dir" default:""`
	// Slicer selects the target slicer (superslicer, prusaslicer, slic3r, orcaslicer).
	Slicer string `mapstructure:"slicer" default:"superslicer"`
	// TemplateRoot is the directory holding the templates-<slicer> dirs.
	TemplateRoot string `mapstructure:"template_root" default:""`
	// Variants is a comma-separated list of variant labels. Empty means a
	// single unvaried output set per filament.
	Variants string `mapstructure:"variants" default:""`
	// DeleteAll removes every config file with a managed suffix from the
	// output dir before the first sync writes anything.
	DeleteAll bool `mapstructure:"delete_all" default:"false"`
	// AdditiveOnly disables deletion of stale files; the engine only
	// creates and updates.
	AdditiveOnly bool `mapstructure:"additive_only" default:"false"`
	// PerSpool switches enumeration from one config per filament to one
	// per selected spool: "all", "least-left" or "most-recent".
	PerSpool string `mapstructure:"per_spool" default:""`
}

// VariantList returns the declared variants, one empty label when none
// are configured.
func (c Config) VariantList() []string {
	if strings.TrimSpace(c.Variants) == "" {
		return []string{""}
	}
	parts := strings.Split(c.Variants, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("engine: output dir is required")
	}
	if _, err := SuffixesForSlicer(c.Slicer); err != nil {
		return err
	}
	switch c.PerSpool {
	case "", PerSpoolAll, PerSpoolLeastLeft, PerSpoolMostRecent:
		return nil
	default:
		return fmt.Errorf("engine: invalid per-spool mode %q", c.PerSpool)
	}
}

// DesiredFile is one (path, rendered content) pair the engine wants on
// disk after a sync.
type DesiredFile struct {
	// Path is the absolute or output-dir-relative target path.
	Path string

	// Content is the rendered file content.
	Content string

	// FilamentID identifies the filament the file belongs to.
	FilamentID int

	// SpoolID identifies the spool in per-spool mode, zero otherwise.
	SpoolID int

	// Variant is the variant label, empty when none.
	Variant string

	// Suffix is the output-file suffix.
	Suffix string
}

// FileError records a per-file failure that did not abort the sync.
type FileError struct {
	// Path is the affected output path, empty when the path could not be
	// computed.
	Path string `json:"path,omitempty"`

	// FilamentID identifies the filament being processed.
	FilamentID int `json:"filament_id,omitempty"`

	// SpoolID identifies the spool in per-spool mode.
	SpoolID int `json:"spool_id,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`

	// Message is the error text, for JSON consumers of the summary.
	Message string `json:"message"`
}

func (e FileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("filament %d: %v", e.FilamentID, e.Err)
}

// SyncSummary is the structured result of one sync cycle.
type SyncSummary struct {
	// RunID uniquely identifies this sync cycle.
	RunID string `json:"run_id"`

	// Created counts files written that did not exist before.
	Created int `json:"created"`

	// Updated counts files rewritten with changed content.
	Updated int `json:"updated"`

	// Deleted counts files removed.
	Deleted int `json:"deleted"`

	// Unchanged counts desired files whose content already matched.
	Unchanged int `json:"unchanged"`

	// Errors lists per-file failures. A non-empty list still means the
	// other files were processed.
	Errors []FileError `json:"errors,omitempty"`

	// StartedAt is when the cycle began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the cycle took.
	Duration time.Duration `json:"duration"`
}

// OK reports whether the cycle completed without per-file errors.
func (s *SyncSummary) OK() bool { return len(s.Errors) == 0 }
