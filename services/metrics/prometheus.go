package metricsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/trezcool/masomo-certs/core/certificate"
)

const namespace = "masomo_certificates"

// PrometheusRecorder counts pipeline outcomes in its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	generated *prometheus.CounterVec
	uploads   *prometheus.CounterVec
	exported  prometheus.Counter
	pruned    prometheus.Counter
}

var _ certificate.Recorder = (*PrometheusRecorder)(nil)

func NewPrometheusRecorder(appName string) *PrometheusRecorder {
	labels := prometheus.Labels{"app": appName}
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "generated_total",
			Help:        "Certificates generated and stored locally.",
			ConstLabels: labels,
		}, nil),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "uploads_total",
			Help:        "Certificate uploads by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		exported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "exported_total",
			Help:        "Certificate documents exported.",
			ConstLabels: labels,
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pruned_entries_total",
			Help:        "Local storage entries removed by pruning.",
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.generated,
		r.uploads,
		r.exported,
		r.pruned,
	)
	// expose zero values before the first event
	r.uploads.WithLabelValues("success")
	r.uploads.WithLabelValues("failure")
	return r
}

// Registry is the gatherer to expose, eg. with promhttp.HandlerFor.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) Generated()    { r.generated.WithLabelValues().Inc() }
func (r *PrometheusRecorder) Uploaded()     { r.uploads.WithLabelValues("success").Inc() }
func (r *PrometheusRecorder) UploadFailed() { r.uploads.WithLabelValues("failure").Inc() }
func (r *PrometheusRecorder) Exported()     { r.exported.Inc() }
func (r *PrometheusRecorder) Pruned(n int)  { r.pruned.Add(float64(n)) }
