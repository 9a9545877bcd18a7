package engine

import "fmt"

// InvalidFilenameError indicates the filename template rendered an empty
// string or a value that is not a single path segment.
type InvalidFilenameError struct {
	// Rendered is the offending render result.
	Rendered string
	// Template is the filename template used.
	Template string
	// FilamentID identifies the filament being processed.
	FilamentID int
}

func (e *InvalidFilenameError) Error() string {
	if e.Rendered == "" {
		return fmt.Sprintf("engine: filename template %s rendered empty name for filament %d",
			e.Template, e.FilamentID)
	}
	return fmt.Sprintf("engine: filename template %s rendered invalid name %q for filament %d",
		e.Template, e.Rendered, e.FilamentID)
}

// CollisionError indicates two distinct (filament, variant) pairs rendered
// the same output path. Neither file is written; this is a configuration
// error in the filename template.
type CollisionError struct {
	// Path is the contested output path.
	Path string
	// FirstFilamentID and SecondFilamentID name the colliding filaments.
	FirstFilamentID  int
	SecondFilamentID int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("engine: filaments %d and %d both render to %s",
		e.FirstFilamentID, e.SecondFilamentID, e.Path)
}

// FilesystemError indicates a file write or delete failed.
type FilesystemError struct {
	// Op is the failed operation, "write" or "delete".
	Op string
	// Path is the affected path.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("engine: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
