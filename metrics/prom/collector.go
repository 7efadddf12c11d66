// Package prom exports recommender metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/leadrec"
	"github.com/hupe1980/leadrec/model"
)

// Namespace prefixes every metric name.
const Namespace = "leadrec"

// Collector implements leadrec.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency       *prometheus.HistogramVec
	ops             *prometheus.CounterVec
	modelRows       prometheus.Gauge
	modelTerms      prometheus.Gauge
	portfolioIDs    *prometheus.CounterVec
	recommendations prometheus.Counter
	evalPortfolios  *prometheus.CounterVec
	artifactBytes   prometheus.Counter
}

var _ leadrec.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg
// registers with prometheus.DefaultRegisterer.
//
// Metrics:
//   - leadrec_operation_duration_seconds{op,status}
//   - leadrec_operations_total{op,status}
//   - leadrec_model_rows, leadrec_model_terms
//   - leadrec_portfolio_ids_total{result}  found or unresolved
//   - leadrec_recommendations_total
//   - leadrec_evaluated_portfolios_total{status}
//   - leadrec_artifact_bytes_written_total
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of fit, predict, evaluate, save and load operations",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"op", "status"}),
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Operations by type and outcome",
		}, []string{"op", "status"}),
		modelRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "model_rows",
			Help:      "Market entries in the most recently fitted model",
		}),
		modelTerms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "model_terms",
			Help:      "Vocabulary size of the most recently fitted model",
		}),
		portfolioIDs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "portfolio_ids_total",
			Help:      "Portfolio ids seen by predict, by resolution",
		}, []string{"result"}),
		recommendations: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations returned by predict",
		}),
		evalPortfolios: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "evaluated_portfolios_total",
			Help:      "Portfolios evaluated, by outcome",
		}, []string{"status"}),
		artifactBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "artifact_bytes_written_total",
			Help:      "Bytes of model artifacts written",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordFit implements leadrec.MetricsCollector.
func (c *Collector) RecordFit(rows, terms int, d time.Duration, err error) {
	c.observe("fit", d, err)
	if err == nil {
		c.modelRows.Set(float64(rows))
		c.modelTerms.Set(float64(terms))
	}
}

// RecordPredict implements leadrec.MetricsCollector.
func (c *Collector) RecordPredict(stats model.MatchStats, returned int, d time.Duration, err error) {
	c.observe("predict", d, err)
	c.portfolioIDs.WithLabelValues("found").Add(float64(stats.Found))
	c.portfolioIDs.WithLabelValues("unresolved").Add(float64(stats.Total - stats.Found))
	c.recommendations.Add(float64(returned))
}

// RecordEvaluate implements leadrec.MetricsCollector.
func (c *Collector) RecordEvaluate(portfolios, failed int, d time.Duration) {
	c.observe("evaluate", d, nil)
	c.evalPortfolios.WithLabelValues("success").Add(float64(portfolios - failed))
	c.evalPortfolios.WithLabelValues("error").Add(float64(failed))
}

// RecordSave implements leadrec.MetricsCollector.
func (c *Collector) RecordSave(bytes int64, d time.Duration, err error) {
	c.observe("save", d, err)
	if err == nil {
		c.artifactBytes.Add(float64(bytes))
	}
}

// RecordLoad implements leadrec.MetricsCollector.
func (c *Collector) RecordLoad(d time.Duration, err error) {
	c.observe("load", d, err)
}

// WriteTextfile writes every metric gathered by g to path in the text
// format read by the node exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
