// Package metrics exports dispatch timings to Prometheus and takes runtime
// memory snapshots for benchmark reports.
package metrics
