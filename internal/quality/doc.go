// Package quality runs data-quality checks over freshly extracted
// snapshots: required columns, value ranges, closed value sets,
// uniqueness, and bed-count consistency. Findings are reported for
// logging and metrics; they do not block the pipeline — a structurally
// unreadable table is a different failure and surfaces as an error.
package quality
