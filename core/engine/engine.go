package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"spoolsync/core/logger"
	"spoolsync/core/render"
	"spoolsync/core/spoolman"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inventory is the engine's view of the inventory service. Satisfied by
// *spoolman.Client.
type Inventory interface {
	FetchSnapshot(ctx context.Context) (*spoolman.Snapshot, error)
}

// unit is one output to produce: a filament (optionally pinned to a
// spool) under one variant and one suffix.
type unit struct {
	key      unitKey
	filament *spoolman.Filament
	spool    *spoolman.Spool
}

// Engine computes the desired set of configuration files from inventory
// state and reconciles the on-disk file set against it. The output
// directory and the in-memory cache are owned exclusively by one Engine;
// files are written sequentially within a sync.
type Engine struct {
	cfg       Config
	inv       Inventory
	resolver  *render.Resolver
	filenames *FilenameBuilder
	suffixes  []string
	sourceURL string
	log       *zap.Logger
	cache     *stateCache

	firstRun bool

	// now is a test hook for the render timestamp.
	now func() time.Time
}

// New creates an engine. sourceURL is exposed to templates as
// sm2s.spoolman_url.
func New(cfg Config, inv Inventory, sourceURL string, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	suffixes, err := SuffixesForSlicer(cfg.Slicer)
	if err != nil {
		return nil, err
	}

	resolver := render.NewResolver(cfg.TemplateRoot, cfg.Slicer)

	return &Engine{
		cfg:       cfg,
		inv:       inv,
		resolver:  resolver,
		filenames: NewFilenameBuilder(resolver, cfg.OutputDir, cfg.PerSpool == PerSpoolAll),
		suffixes:  suffixes,
		sourceURL: sourceURL,
		log:       log,
		cache:     newStateCache(),
		firstRun:  true,
		now:       time.Now,
	}, nil
}

// Sync runs one reconciliation cycle: fetch, compute the desired file
// set, apply the minimal writes and deletes, update the cache, and
// return a summary. Fetch failures abort the cycle; per-file failures
// are recorded in the summary and do not stop other files from being
// processed.
func (e *Engine) Sync(ctx context.Context) (*SyncSummary, error) {
	summary := &SyncSummary{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
	}
	l := logger.WithRunID(e.log, summary.RunID)

	snap, err := e.inv.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	units := e.enumerate(snap)
	l.Debug("Computed output units", zap.Int("units", len(units)))

	desired, collided, failed := e.renderDesired(units, summary)

	if e.cfg.DeleteAll && e.firstRun {
		e.deleteAllBySuffix(summary, l)
	}
	e.firstRun = false

	e.applyWrites(desired, summary, l)

	if !e.cfg.AdditiveOnly {
		e.applyDeletes(desired, collided, failed, summary, l)
	}

	summary.Duration = time.Since(summary.StartedAt)
	l.Info("Sync finished",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", summary.Duration),
	)

	return summary, nil
}

// enumerate expands the snapshot into output units according to the
// per-spool mode. The variant axis applies multiplicatively in every
// mode.
func (e *Engine) enumerate(snap *spoolman.Snapshot) []unit {
	variants := e.cfg.VariantList()

	var units []unit
	add := func(f *spoolman.Filament, sp *spoolman.Spool, spoolKeyed bool) {
		for _, suffix := range e.suffixes {
			for _, variant := range variants {
				k := unitKey{FilamentID: f.ID, Variant: variant, Suffix: suffix}
				if spoolKeyed && sp != nil {
					k.SpoolID = sp.ID
				}
				units = append(units, unit{key: k, filament: f, spool: sp})
			}
		}
	}

	switch e.cfg.PerSpool {
	case PerSpoolAll:
		for _, sp := range snap.ActiveSpools() {
			add(sp.Filament, sp, true)
		}
	case PerSpoolLeastLeft, PerSpoolMostRecent:
		for _, f := range snap.ActiveFilaments() {
			spools := snap.SpoolsForFilament(f.ID)
			if len(spools) == 0 {
				continue
			}
			sel := selectLeastLeft(spools)
			if e.cfg.PerSpool == PerSpoolMostRecent {
				sel = selectMostRecent(spools)
			}
			add(f, sel, false)
		}
	default:
		for _, f := range snap.ActiveFilaments() {
			add(f, nil, false)
		}
	}

	return units
}

// renderDesired builds the desired file set, recording per-unit errors
// and detecting path collisions between distinct units.
func (e *Engine) renderDesired(units []unit, summary *SyncSummary) (map[string]*DesiredFile, map[string]bool, map[unitKey]bool) {
	desired := make(map[string]*DesiredFile)
	owners := make(map[string]unitKey)
	collided := make(map[string]bool)
	failed := make(map[unitKey]bool)

	now := e.now()

	record := func(u unit, path string, err error) {
		failed[u.key] = true
		summary.Errors = append(summary.Errors, FileError{
			Path:       path,
			FilamentID: u.filament.ID,
			SpoolID:    u.key.SpoolID,
			Err:        err,
			Message:    err.Error(),
		})
	}

	for _, u := range units {
		rc := render.BuildContext(u.filament, u.spool, render.Meta{
			ToolName:  ToolName,
			Version:   Version,
			Now:       now,
			Suffix:    u.key.Suffix,
			Variant:   u.key.Variant,
			SourceURL: e.sourceURL,
		})

		path, err := e.filenames.BuildPath(rc, u.filament.ID)
		if err != nil {
			record(u, "", err)
			continue
		}

		if owner, taken := owners[path]; taken {
			cerr := &CollisionError{
				Path:             path,
				FirstFilamentID:  owner.FilamentID,
				SecondFilamentID: u.filament.ID,
			}
			record(u, path, cerr)
			if !collided[path] {
				// Fail the first claimant too; neither file is written.
				failed[owner] = true
				if prev, ok := desired[path]; ok {
					summary.Errors = append(summary.Errors, FileError{
						Path:       path,
						FilamentID: prev.FilamentID,
						SpoolID:    prev.SpoolID,
						Err:        cerr,
						Message:    cerr.Error(),
					})
				}
				delete(desired, path)
				collided[path] = true
			}
			continue
		}
		owners[path] = u.key

		tmpl, err := e.resolver.Resolve(u.filament.Material, u.key.Suffix)
		if err != nil {
			record(u, path, err)
			continue
		}

		content, err := tmpl.Render(rc)
		if err != nil {
			record(u, path, err)
			continue
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}

		desired[path] = &DesiredFile{
			Path:       path,
			Content:    content,
			FilamentID: u.filament.ID,
			SpoolID:    u.key.SpoolID,
			Variant:    u.key.Variant,
			Suffix:     u.key.Suffix,
		}
	}

	return desired, collided, failed
}

// applyWrites writes every desired file whose content differs from the
// cached or on-disk content, in path order.
func (e *Engine) applyWrites(desired map[string]*DesiredFile, summary *SyncSummary, l *zap.Logger) {
	paths := make([]string, 0, len(desired))
	for p := range desired {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		df := desired[path]
		key := unitKey{
			FilamentID: df.FilamentID,
			SpoolID:    df.SpoolID,
			Variant:    df.Variant,
			Suffix:     df.Suffix,
		}
		hash := contentHash(df.Content)

		if entry, ok := e.cache.lookup(key); ok && entry.Path == path && entry.Hash == hash {
			if _, err := os.Stat(path); err == nil {
				summary.Unchanged++
				continue
			}
			// Cache says unchanged but the file is gone; rewrite it.
		}

		existing, err := os.ReadFile(path)
		switch {
		case err == nil && contentHash(string(existing)) == hash:
			summary.Unchanged++
		case err == nil:
			if werr := atomicWrite(path, df.Content); werr != nil {
				e.recordFileError(summary, df, &FilesystemError{Op: "write", Path: path, Err: werr})
				continue
			}
			l.Info("Updated config", zap.String("path", path))
			summary.Updated++
		case os.IsNotExist(err):
			if werr := atomicWrite(path, df.Content); werr != nil {
				e.recordFileError(summary, df, &FilesystemError{Op: "write", Path: path, Err: werr})
				continue
			}
			l.Info("Created config", zap.String("path", path))
			summary.Created++
		default:
			e.recordFileError(summary, df, &FilesystemError{Op: "write", Path: path, Err: err})
			continue
		}

		e.cache.store(key, path, hash)
	}
}

// applyDeletes removes managed paths that are no longer desired. Paths
// belonging to units that failed this cycle are left untouched, as are
// contested (collided) paths.
func (e *Engine) applyDeletes(desired map[string]*DesiredFile, collided map[string]bool, failed map[unitKey]bool, summary *SyncSummary, l *zap.Logger) {
	managed := e.cache.managedPaths()

	paths := make([]string, 0, len(managed))
	for p := range managed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		key := managed[path]
		if _, want := desired[path]; want {
			continue
		}
		if collided[path] || failed[key] {
			continue
		}

		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			summary.Errors = append(summary.Errors, FileError{
				Path:       path,
				FilamentID: key.FilamentID,
				SpoolID:    key.SpoolID,
				Err:        &FilesystemError{Op: "delete", Path: path, Err: err},
				Message:    err.Error(),
			})
			continue
		}
		if err == nil {
			l.Info("Deleted config", zap.String("path", path))
			summary.Deleted++
		}
		e.cache.forgetPath(path)
	}
}

// deleteAllBySuffix removes every file in the output dir carrying one of
// the slicer's managed suffixes. Only runs before the first sync cycle
// writes anything.
func (e *Engine) deleteAllBySuffix(summary *SyncSummary, l *zap.Logger) {
	entries, err := os.ReadDir(e.cfg.OutputDir)
	if err != nil {
		summary.Errors = append(summary.Errors, FileError{
			Path:    e.cfg.OutputDir,
			Err:     &FilesystemError{Op: "delete", Path: e.cfg.OutputDir, Err: err},
			Message: err.Error(),
		})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, suffix := range e.suffixes {
			if !strings.HasSuffix(name, "."+suffix) {
				continue
			}
			path := filepath.Join(e.cfg.OutputDir, name)
			if err := os.Remove(path); err != nil {
				summary.Errors = append(summary.Errors, FileError{
					Path:    path,
					Err:     &FilesystemError{Op: "delete", Path: path, Err: err},
					Message: err.Error(),
				})
				break
			}
			l.Info("Deleted config", zap.String("path", path))
			summary.Deleted++
			e.cache.forgetPath(path)
			break
		}
	}
}

func (e *Engine) recordFileError(summary *SyncSummary, df *DesiredFile, err error) {
	summary.Errors = append(summary.Errors, FileError{
		Path:       df.Path,
		FilamentID: df.FilamentID,
		SpoolID:    df.SpoolID,
		Err:        err,
		Message:    err.Error(),
	})
}

// selectLeastLeft picks the spool with the least remaining weight,
// tie-breaking on the lowest spool ID.
func selectLeastLeft(spools []*spoolman.Spool) *spoolman.Spool {
	best := spools[0]
	for _, s := range spools[1:] {
		if s.RemainingWeight < best.RemainingWeight {
			best = s
		}
	}
	return best
}

// selectMostRecent picks the most recently registered spool,
// tie-breaking on the lowest spool ID. Registration timestamps are ISO
// strings, so lexical comparison orders them chronologically.
func selectMostRecent(spools []*spoolman.Spool) *spoolman.Spool {
	best := spools[0]
	for _, s := range spools[1:] {
		if s.Registered > best.Registered {
			best = s
		}
	}
	return best
}

// atomicWrite writes content to a temp file in the target directory and
// renames it into place, so readers never observe a partially written
// config.
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spoolsync-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
