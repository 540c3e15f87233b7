// Package metrics provides Prometheus metrics for the document repository
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_documents_created_total",
			Help: "Total number of documents created",
		},
		[]string{"type"},
	)

	DocumentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "knuth_documents_deleted_total",
			Help: "Total number of document rows removed by cascading deletes",
		},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_uploads_total",
			Help: "Total number of uploaded payloads",
		},
		[]string{"mimetype"},
	)

	ExtractedFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_extracted_fields_total",
			Help: "Total number of metadata fields extracted from payloads",
		},
		[]string{"key"},
	)

	IndexOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_index_operations_total",
			Help: "Total number of search index operations",
		},
		[]string{"operation", "status"},
	)

	BlobErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_blob_errors_total",
			Help: "Total number of failed blob store operations",
		},
		[]string{"operation"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knuth_job_runs_total",
			Help: "Total number of background job runs",
		},
		[]string{"job", "status"},
	)
)

// Status maps an error to a metric label.
func Status(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
