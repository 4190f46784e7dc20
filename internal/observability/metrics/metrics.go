package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "correlator_"

// Ingest result labels.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec

	alarmsBuffered prometheus.Counter

	flushesTotal *prometheus.CounterVec
	flushedBatch prometheus.Histogram

	clustersTotal       prometheus.Counter
	correlationFailures prometheus.Counter

	incidentsCreated  prometheus.Counter
	incidentsDeduped  prometheus.Counter
	incidentSaveFails prometheus.Counter
)

// Init registers the correlator collectors with the default registry.
// Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)

		alarmsBuffered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarms_buffered_total",
				Help: "Total alarms appended to tenant buffers",
			},
		)

		flushesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "flushes_total",
				Help: "Total tenant buffer flushes by trigger",
			},
			[]string{"trigger"},
		)

		flushedBatch = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "flushed_batch_size",
				Help:    "Size of correlated batches",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		)

		clustersTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "clusters_total",
				Help: "Total clusters produced by correlation",
			},
		)

		correlationFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "correlation_failures_total",
				Help: "Total dropped batches due to correlation failures",
			},
		)

		incidentsCreated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "incidents_created_total",
				Help: "Total incidents created from clusters",
			},
		)

		incidentsDeduped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "incidents_deduplicated_total",
				Help: "Total duplicate cluster notifications suppressed",
			},
		)

		incidentSaveFails = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "incident_store_failures_total",
				Help: "Total incident store errors surfaced as retryable",
			},
		)

		prometheus.MustRegister(
			ingestRequests,
			alarmsBuffered,
			flushesTotal,
			flushedBatch,
			clustersTotal,
			correlationFailures,
			incidentsCreated,
			incidentsDeduped,
			incidentSaveFails,
		)
	})
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncIngestRequest counts one ingest request by result label.
func IncIngestRequest(result string) {
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
}

// IncAlarmsBuffered counts one alarm appended to a tenant buffer.
func IncAlarmsBuffered() {
	if alarmsBuffered != nil {
		alarmsBuffered.Inc()
	}
}

// ObserveFlush counts a flush by trigger and records the batch size.
func ObserveFlush(trigger string, batchSize int) {
	if flushesTotal != nil {
		flushesTotal.WithLabelValues(trigger).Inc()
	}

	if flushedBatch != nil {
		flushedBatch.Observe(float64(batchSize))
	}
}

// AddClusters counts clusters produced by one correlation run.
func AddClusters(n int) {
	if clustersTotal != nil {
		clustersTotal.Add(float64(n))
	}
}

// IncCorrelationFailure counts one dropped batch.
func IncCorrelationFailure() {
	if correlationFailures != nil {
		correlationFailures.Inc()
	}
}

// IncIncidentCreated counts one created incident.
func IncIncidentCreated() {
	if incidentsCreated != nil {
		incidentsCreated.Inc()
	}
}

// IncIncidentDeduplicated counts one suppressed duplicate notification.
func IncIncidentDeduplicated() {
	if incidentsDeduped != nil {
		incidentsDeduped.Inc()
	}
}

// IncIncidentStoreFailure counts one incident store error.
func IncIncidentStoreFailure() {
	if incidentSaveFails != nil {
		incidentSaveFails.Inc()
	}
}
