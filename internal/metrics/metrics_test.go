package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Login("admin", OutcomeSuccess)
	m.GuardRejected("teacher", ReasonStale)
	m.AccountCreated("teacher")
	m.PasswordChanged("admin")

	families, err := reg.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}
	for _, name := range []string{
		"smp_logins_total",
		"smp_guard_rejections_total",
		"smp_accounts_created_total",
		"smp_password_changes_total",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login("admin", OutcomeFailure)
	m.Login("admin", OutcomeFailure)
	m.GuardRejected("admin", ReasonExpired)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("admin", OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.logins.WithLabelValues("admin", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardRejections.WithLabelValues("admin", ReasonExpired)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login("admin", OutcomeSuccess)
		m.GuardRejected("admin", ReasonInvalid)
		m.AccountCreated("admin")
		m.PasswordChanged("admin")
	})
}
