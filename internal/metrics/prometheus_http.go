package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// HTTPHandler returns an http.Handler that serves metrics for reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// WriteTextfile writes the metrics of reg to path in the text exposition
// format, for collection by node_exporter's textfile collector.
func WriteTextfile(reg *prom.Registry, path string) error {
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("path", path).
			Build()
	}
	return nil
}
