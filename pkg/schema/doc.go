// Package schema describes declarative forms: the recursive field tree, the
// rule expressions attached to fields and the documents that carry both.
//
// The tree may nest containers (group, inline) two levels below the root.
// Check enforces that limit together with id uniqueness and the leaf/container
// split, so the rest of the module can rely on a well-formed structure.
// Documents are decoded from JSON or YAML by a Loader that also gates the
// document version and sanitizes user-facing text.
package schema
