// Package telemetry owns the Prometheus registry and the report export
// metrics.
package telemetry

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "fittracker"

type Telemetry struct {
	Registry *prometheus.Registry

	exports        *prometheus.CounterVec
	exportPages    prometheus.Histogram
	exportDuration prometheus.Histogram
	archived       *prometheus.CounterVec
	log            zerolog.Logger
}

// New creates a registry with Go runtime and process collectors plus the
// export metrics.
func New(log zerolog.Logger) *Telemetry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	t := &Telemetry{
		Registry: reg,
		log:      log,
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "exports_total",
			Help:      "PDF exports by result.",
		}, []string{"result"}),
		exportPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "pages",
			Help:      "Pages per exported PDF.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "export_duration_seconds",
			Help:      "Time to lay out, rasterize and write a PDF.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		archived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "archived_total",
			Help:      "Archive writes by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(t.exports, t.exportPages, t.exportDuration, t.archived)
	return t
}

// ObserveExport records one export attempt.
func (t *Telemetry) ObserveExport(pages int, d time.Duration, err error) {
	if err != nil {
		t.exports.WithLabelValues("error").Inc()
		return
	}
	t.exports.WithLabelValues("ok").Inc()
	t.exportPages.Observe(float64(pages))
	t.exportDuration.Observe(d.Seconds())
}

func (t *Telemetry) ObserveArchive(err error) {
	if err != nil {
		t.archived.WithLabelValues("error").Inc()
		return
	}
	t.archived.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (t *Telemetry) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{
		ErrorLog:      t,
		ErrorHandling: promhttp.ContinueOnError,
	}))
}

// Println implements promhttp.Logger.
func (t *Telemetry) Println(v ...interface{}) {
	t.log.Error().Msg(fmt.Sprint(v...))
}
