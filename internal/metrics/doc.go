// Package metrics records run, part and forge request metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// never need nil checks at call sites. The Prometheus implementation backs
// the /metrics endpoint of watch mode and the optional textfile export used
// with node_exporter after one-shot runs.
package metrics
