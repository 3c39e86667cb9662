// Package metrics tracks run counters for the batch binaries and writes
// them in Prometheus textfile-collector format. A batch job has no
// scrape endpoint to expose; the node exporter picks the file up.
package metrics
