// Package render locates, compiles and renders the user-supplied
// configuration templates.
//
// Templates live under <root>/templates-<slicer>/ and follow the naming
// scheme <material>.<suffix>.template with default.<suffix>.template as
// the fallback, plus the reserved filename templates. The syntax is Go
// text/template extended with the sprig function library, so authors get
// double-brace variables, dotted-path access into nested records
// ({{ .vendor.name }}) and default-value filters
// ({{ .comment | default "no comment" }}).
//
// Every known filament field is present in the Context, so defaulting
// applies to empty values; referencing a variable that does not exist at
// all fails the render with *RenderError naming the variable. Keys in
// the open-ended extra map are looked up safely with sprig's get:
// {{ get .extra "pressure_advance" | default "0.04" }}.
package render
