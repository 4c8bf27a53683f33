// Package metrics records extraction and library metrics.
//
// Components take a Recorder and default to NoopRecorder, so callers
// never check for nil:
//
//	ex := extract.New(extract.Options{Recorder: metrics.NoopRecorder{}})
//
// cmd/server swaps in a PrometheusRecorder and exposes it with
// HTTPHandler on /metrics.
package metrics
