package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry in the Prometheus text format, or
// OpenMetrics when the scraper asks for it. Mount it at MetricsConfig.Path.
// A nil collector serves an empty registry.
func (c *Collector) Handler() http.Handler {
	return c.HandlerWithOptions(promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// HandlerWithOptions is Handler with caller-supplied options.
func (c *Collector) HandlerWithOptions(opts promhttp.HandlerOpts) http.Handler {
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), opts)
	}
	return promhttp.HandlerFor(c.registry, opts)
}
