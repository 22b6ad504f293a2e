// Package metrics defines and registers all custom Prometheus metrics for the
// investment platform's auth API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register themselves with the default Prometheus registry at package
// init via promauto; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "investmatch"

// ── Account lifecycle ─────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "duplicate", "invalid", "mail_failed"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// OTPVerificationsTotal counts OTP verification attempts.
// Label:
//   - result: "verified", "invalid", "expired", "locked"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid", "locked", "unverified"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts refresh-token exchanges.
// Label:
//   - result: "success", "invalid", "revoked"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of access-token refreshes, by result.",
	},
	[]string{"result"},
)

// LockoutsTotal counts accounts entering a lockout window.
// Label:
//   - reason: "login", "otp", "reset"
var LockoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of temporary account lockouts, by trigger.",
	},
	[]string{"reason"},
)

// PasswordResetsTotal counts password-reset flow steps.
// Label:
//   - stage: "requested", "completed", "changed"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset/change operations, by stage.",
	},
	[]string{"stage"},
)

// ── Mail delivery ─────────────────────────────────────────────────────────────

// MailSendsTotal counts outbound mail attempts.
// Label:
//   - result: "ok" or "error"
var MailSendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sends_total",
		Help:      "Total number of outbound emails, by delivery result.",
	},
	[]string{"result"},
)

// MailSendDuration measures how long a single mail delivery takes.
var MailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_send_duration_seconds",
		Help:      "Duration of outbound mail delivery calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
