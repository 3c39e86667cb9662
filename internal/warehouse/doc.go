// Package warehouse loads raw extracts into the analytical Postgres
// warehouse. Tables are append-only raw landings keyed by batch id;
// downstream models distinguish runs by batch_id and extracted_at.
package warehouse
