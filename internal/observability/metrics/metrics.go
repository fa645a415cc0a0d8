package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "guardops_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	agendaReads       *prometheus.CounterVec
	agendaReadLatency *prometheus.HistogramVec

	kpiReads       *prometheus.CounterVec
	kpiReadLatency *prometheus.HistogramVec

	outcomeRecordings      *prometheus.CounterVec
	outcomeRecordLatency   *prometheus.HistogramVec
	materializeRuns        *prometheus.CounterVec
	materializeRowsCreated prometheus.Counter

	schedulerRuns *prometheus.CounterVec

	eventsPublished  *prometheus.CounterVec
	eventsDeadletter *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		agendaReads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "agenda_reads_total",
				Help: "Total agenda reads by result",
			},
			[]string{"result"},
		)
		agendaReadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "agenda_read_latency_seconds",
				Help:    "Agenda read latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		kpiReads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "kpi_reads_total",
				Help: "Total KPI reads by result",
			},
			[]string{"result"},
		)
		kpiReadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "kpi_read_latency_seconds",
				Help:    "KPI read latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		outcomeRecordings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outcome_recordings_total",
				Help: "Total recorded call outcomes by status and result",
			},
			[]string{"status", "result"},
		)
		outcomeRecordLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "outcome_record_latency_seconds",
				Help:    "Outcome recording latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		materializeRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "materialize_runs_total",
				Help: "Total agenda materialization runs by result",
			},
			[]string{"result"},
		)
		materializeRowsCreated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "materialize_rows_created_total",
				Help: "Total pending outcome rows created by materialization",
			},
		)

		schedulerRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_runs_total",
				Help: "Total daily scheduler runs by result",
			},
			[]string{"result"},
		)

		eventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"type"},
		)
		eventsDeadletter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_deadletter_total",
				Help: "Total events routed to the dead letter store by type",
			},
			[]string{"type"},
		)

		prometheus.MustRegister(
			agendaReads,
			agendaReadLatency,
			kpiReads,
			kpiReadLatency,
			outcomeRecordings,
			outcomeRecordLatency,
			materializeRuns,
			materializeRowsCreated,
			schedulerRuns,
			eventsPublished,
			eventsDeadletter,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveAgendaRead records agenda read duration and result.
func ObserveAgendaRead(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if agendaReads != nil {
		agendaReads.WithLabelValues(result).Inc()
	}
	if agendaReadLatency != nil {
		agendaReadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveKpiRead records KPI read duration and result.
func ObserveKpiRead(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if kpiReads != nil {
		kpiReads.WithLabelValues(result).Inc()
	}
	if kpiReadLatency != nil {
		kpiReadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveOutcomeRecording records an outcome write with its status.
func ObserveOutcomeRecording(status, result string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if outcomeRecordings != nil {
		outcomeRecordings.WithLabelValues(status, result).Inc()
	}
	if outcomeRecordLatency != nil {
		outcomeRecordLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveMaterializeRun records a materialization run and its row count.
func ObserveMaterializeRun(result string, created int) {
	if result == "" {
		result = resultSuccess
	}
	if materializeRuns != nil {
		materializeRuns.WithLabelValues(result).Inc()
	}
	if created > 0 && materializeRowsCreated != nil {
		materializeRowsCreated.Add(float64(created))
	}
}

// IncSchedulerRun increments the daily scheduler run counter.
func IncSchedulerRun(result string) {
	if result == "" {
		result = resultSuccess
	}
	if schedulerRuns != nil {
		schedulerRuns.WithLabelValues(result).Inc()
	}
}

// IncEventPublished increments the published event counter.
func IncEventPublished(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	if eventsPublished != nil {
		eventsPublished.WithLabelValues(eventType).Inc()
	}
}

// IncEventDeadletter increments the dead letter counter.
func IncEventDeadletter(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	if eventsDeadletter != nil {
		eventsDeadletter.WithLabelValues(eventType).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
