// Package model holds the caller-owned data bag a form reads and proposes
// edits against. Values is a flat map keyed by field id; Accessor is the one
// place that interprets a stored value according to its field's declared
// type, so the rest of the module never type-asserts model entries by hand.
// Equality, emptiness and truthiness helpers here define what "filled" and
// "matches" mean for visibility and completion.
package model
