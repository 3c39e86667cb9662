// Package config loads the pipeline configuration from a YAML file.
// Secrets (webhook URL, SMTP credentials, warehouse DSN, object-store
// keys) are never stored in the file itself: the file names the
// environment variables that hold them and accessor methods resolve the
// values at call time. Missing fields are filled with defaults before
// validation.
package config
