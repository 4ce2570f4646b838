package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Guard rejection reasons.
const (
	ReasonMissingToken  = "missing_token"
	ReasonExpired       = "expired"
	ReasonInvalid       = "invalid"
	ReasonRoleMismatch  = "role_mismatch"
	ReasonEmailMismatch = "email_mismatch"
	ReasonStale         = "stale"
	ReasonDefaultPasswd = "default_password"
)

// Metrics holds the auth counters. A nil *Metrics records nothing.
type Metrics struct {
	logins          *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
	accountsCreated *prometheus.CounterVec
	passwordChanges *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_logins_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		guardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_guard_rejections_total",
			Help: "Requests rejected by the access guard by role and reason",
		}, []string{"role", "reason"}),
		accountsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_accounts_created_total",
			Help: "Accounts created by role",
		}, []string{"role"}),
		passwordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smp_password_changes_total",
			Help: "Successful password changes by role",
		}, []string{"role"}),
	}
}

// Login records a login attempt.
func (m *Metrics) Login(role, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}

// GuardRejected records a request the access guard turned away.
func (m *Metrics) GuardRejected(role, reason string) {
	if m == nil {
		return
	}
	m.guardRejections.WithLabelValues(role, reason).Inc()
}

// AccountCreated records a new account.
func (m *Metrics) AccountCreated(role string) {
	if m == nil {
		return
	}
	m.accountsCreated.WithLabelValues(role).Inc()
}

// PasswordChanged records a password change, default password changes included.
func (m *Metrics) PasswordChanged(role string) {
	if m == nil {
		return
	}
	m.passwordChanges.WithLabelValues(role).Inc()
}
