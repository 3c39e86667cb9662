// Package alerting classifies freshly extracted health metrics against
// fixed operational thresholds and produces structured alerts.
//
// The classifier is pure: it is built once from an explicit Thresholds
// value and evaluates each rule independently over the full snapshot,
// in a fixed order that also fixes the output order. It performs no I/O
// and holds no state between passes.
package alerting
