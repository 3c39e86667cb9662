// Package storage lands raw extracts in an S3-compatible object store.
// Landing is optional: when no bucket is configured the pipeline keeps
// its local CSV outputs and skips the upload. Failures here never abort
// a run; the warehouse and the alerter work from the local files.
package storage
