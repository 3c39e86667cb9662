// Package snapshot holds the row-oriented tables produced by one batch
// extraction run. A Table is read from a CSV extract; typed views
// (Occupancy, Visits, Facilities) verify the expected columns and parse
// rows into record structs. A missing column surfaces as a
// MissingFieldError so that downstream consumers fail loudly instead of
// silently skipping safety-critical rules.
package snapshot
