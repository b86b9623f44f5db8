// Package validation compiles declarative rule expressions into validators
// and runs them per field and per form. Failures are user-facing messages
// collected into an ErrorMap; returned errors are reserved for
// configuration problems, cancellation and failing custom tests.
package validation
