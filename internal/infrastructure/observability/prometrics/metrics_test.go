package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	a := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	b := r.Counter("usecase_requests_total", "help", "use_case", "outcome")

	a.Add(1, observability.L("use_case", "order.process"), observability.L("outcome", "success"))
	b.Add(2, observability.L("use_case", "order.process"), observability.L("outcome", "success"))

	n, err := testutil.GatherAndCount(reg, "usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v := r.(*registry)
	cv, _ := v.counters.Load("usecase_requests_total")
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("order.process", "success")))
}

func TestStandardCatalogue(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New(reg, "", ""))

	assert.Len(t, counters, 4)
	assert.Len(t, histograms, 4)

	histograms[observability.MSideEffectTaskDuration].Observe(0.2, observability.L("task", "email_notification"))
	n, err := testutil.GatherAndCount(reg, "sideeffect_task_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
