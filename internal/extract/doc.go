// Package extract produces the three health datasets consumed by the
// pipeline: care visits, bed occupancy, and the health-facility
// registry.
//
// A Source either returns records or reports ErrUnavailable. The policy
// of substituting simulated fixtures when the live municipal APIs are
// down belongs to the caller (the extractor command), never to the
// classifier downstream.
package extract
