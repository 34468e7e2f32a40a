// Package metrics provides Prometheus metrics for harness runs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks search API requests by status
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "search_api",
			Name:      "requests_total",
			Help:      "Total number of search API requests by status code",
		},
		[]string{"status_code"},
	)

	// APIRequestDuration tracks search API latency
	APIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "search_api",
			Name:      "request_duration_seconds",
			Help:      "Duration of search API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// APIRetriesTotal tracks retried search API attempts
	APIRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "search_api",
			Name:      "retries_total",
			Help:      "Total number of retried search API attempts",
		},
	)

	// CacheLookupsTotal tracks response cache lookups
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of response cache lookups by result",
		},
		[]string{"result"},
	)

	// CasesTotal tracks executed cases by mode and status
	CasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "runner",
			Name:      "cases_total",
			Help:      "Total number of executed cases by mode and status",
		},
		[]string{"mode", "status"},
	)

	// CaseDuration tracks case execution time
	CaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "runner",
			Name:      "case_duration_seconds",
			Help:      "Duration of case executions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	// ReconciledRecords tracks reconciliation partition sizes
	ReconciledRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "reconcile",
			Name:      "records_total",
			Help:      "Total number of reconciled records by source and partition",
		},
		[]string{"source", "partition"},
	)

	// RelevanceScores tracks the distribution of record relevance scores
	RelevanceScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "relevance",
			Name:      "record_score",
			Help:      "Distribution of record relevance scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// EventsPublished tracks run events published
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of run events published by status",
		},
		[]string{"status"},
	)
)

// RecordAPIRequest records a search API request
func RecordAPIRequest(statusCode string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(statusCode).Inc()
	APIRequestDuration.Observe(durationSeconds)
}

// RecordCase records a completed case
func RecordCase(mode, status string, durationSeconds float64) {
	CasesTotal.WithLabelValues(mode, status).Inc()
	CaseDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordPartition adds n records to a reconciliation partition
func RecordPartition(source, partition string, n int) {
	if n > 0 {
		ReconciledRecords.WithLabelValues(source, partition).Add(float64(n))
	}
}

// WriteTextfile writes the default registry in the node-exporter textfile format
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
