package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New("admin")

	m.LoginAttempt("success")
	m.LoginAttempt("success")
	m.LoginAttempt("invalid_credentials")
	m.TableCreated()
	m.RecordUpdated()
	m.Exported("csv")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tablesCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tablesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordUpdates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("csv")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginAttempt("success")
		m.TableCreated()
		m.TableDeleted()
		m.RecordUpdated()
		m.Exported("xlsx")
	})
}
