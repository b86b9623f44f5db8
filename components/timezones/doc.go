// Package timezones provides deterministic IANA timezone data and the pieces
// needed to offer it through an autocomplete field: a search filter, a
// "timezone" validation test and a preconfigured field.
//
// The backing data is loaded from the embedded list under
// data/iana_timezones.txt.
package timezones
