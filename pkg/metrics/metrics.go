// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for passkey ceremony
// operations: ceremony counters, duration histograms, and error counters by
// taxonomy kind. Collectors register with the default registry; embedding
// applications decide whether and where to expose them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all passkey metrics
	Namespace = "passkey"

	// Label names
	LabelCeremony  = "ceremony"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Error type values, mirroring the ceremony error taxonomy
	ErrorInvalidArgument = "invalid_argument"
	ErrorUnavailable     = "unavailable"
	ErrorUnsupported     = "unsupported"
	ErrorNativeFailure   = "native_failure"
	ErrorTimeout         = "timeout"
	ErrorCancelled       = "cancelled"
)

var (
	// CeremoniesTotal tracks the total number of ceremonies by type and status.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremonies_total",
			Help:      "Total number of WebAuthn ceremonies by type and status",
		},
		[]string{LabelCeremony, LabelStatus},
	)

	// CeremonyDuration tracks ceremony duration in seconds. Buckets cover
	// the span from an immediate native failure to a user slowly completing
	// a biometric prompt.
	CeremonyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ceremony_duration_seconds",
			Help:      "Duration of WebAuthn ceremonies in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{LabelCeremony},
	)

	// ErrorsTotal tracks ceremony errors by type and taxonomy kind.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of ceremony errors by type and error kind",
		},
		[]string{LabelCeremony, LabelErrorType},
	)
)

// RecordCeremony records one completed ceremony with its status and duration.
func RecordCeremony(ceremony, status string, duration time.Duration) {
	CeremoniesTotal.WithLabelValues(ceremony, status).Inc()
	CeremonyDuration.WithLabelValues(ceremony).Observe(duration.Seconds())
}

// RecordError records a ceremony error by taxonomy kind.
func RecordError(ceremony, errorType string) {
	ErrorsTotal.WithLabelValues(ceremony, errorType).Inc()
}
