// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values shared by the check-in counters.
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
	ResultError   = "error"
)

var (
	// CheckIns counts check-in calls by outcome. "created" means the
	// attendance row was new.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkins_total",
		Help: "Check-in operations by result.",
	}, []string{"result"})

	// WalkIns counts walk-in registrations by outcome.
	WalkIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walkins_total",
		Help: "Walk-in registrations by result.",
	}, []string{"result"})

	// RosterImportRows counts imported CSV rows by outcome (created, updated,
	// unmatched).
	RosterImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_import_rows_total",
		Help: "Roster import rows by outcome.",
	}, []string{"outcome"})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit log entries that could not be written.",
	})
)
