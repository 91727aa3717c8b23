package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/models"
)

func TestMetrics_RecordPull(t *testing.T) {
	m := NewMetrics()

	m.RecordPull(OutcomeApplied, 20*time.Millisecond)
	m.RecordPull(OutcomeApplied, 30*time.Millisecond)
	m.RecordPull(OutcomeFailed, time.Second)
	m.RecordPull(OutcomeDiscarded, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pulls.WithLabelValues(OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pulls.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pulls.WithLabelValues(OutcomeDiscarded)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pullDuration))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordCoalesced()
	m.RecordDropped("line", 3)
	m.RecordDropped("line", 0)
	m.RecordPush("submit", nil)
	m.RecordPush("cancel", errors.New("boom"))
	m.RecordSettlement(23000)
	m.RecordSettlement(0)
	m.RecordNotifyFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.coalesced))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.dropped.WithLabelValues("line")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushes.WithLabelValues("submit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushes.WithLabelValues("cancel", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements))
	assert.Equal(t, 23000.0, testutil.ToFloat64(m.settledAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailures))
}

func TestMetrics_SetTableCounts(t *testing.T) {
	m := NewMetrics()

	m.SetTableCounts(map[models.TableState]int{models.TableEmpty: 17, models.TableOrdered: 2, models.TableReserved: 1})
	m.SetTableCounts(map[models.TableState]int{models.TableEmpty: 18, models.TableOrdered: 2})

	assert.Equal(t, 18.0, testutil.ToFloat64(m.tables.WithLabelValues("empty")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tables.WithLabelValues("ordered")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tables.WithLabelValues("reserved")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordPull(OutcomeApplied, time.Millisecond)
		m.RecordCoalesced()
		m.RecordDropped("table", 1)
		m.RecordPush("submit", nil)
		m.RecordSettlement(1)
		m.RecordNotifyFailure()
		m.SetTableCounts(nil)
	})
	assert.Zero(t, m.Uptime())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordSettlement(8000)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "maitred_settlements_total 1")
}
