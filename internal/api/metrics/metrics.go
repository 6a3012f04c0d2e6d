// Package metrics defines the custom Prometheus metrics of the passop API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Collectors register with the default Prometheus registry on package init;
// HTTP request metrics are added separately by the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "passop"

// Result label values shared by the counters below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultExists  = "exists"
	ResultLocked  = "locked"
	ResultDeleted = "deleted"
	ResultNoop    = "noop"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "exists", or "failure"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "failure" (unknown email or wrong password), or "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Credential metrics ────────────────────────────────────────────────────────

// CredentialsCreatedTotal counts stored credentials.
var CredentialsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credentials_created_total",
		Help:      "Total number of credentials stored.",
	},
)

// CredentialsDeletedTotal counts delete requests.
// Label:
//   - result: "deleted" when a record was removed, "noop" when nothing matched
var CredentialsDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credentials_deleted_total",
		Help:      "Total number of credential delete requests, by result.",
	},
	[]string{"result"},
)
