package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Rejections.WithLabelValues("not_your_turn"))
	Rejections.WithLabelValues("not_your_turn").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Rejections.WithLabelValues("not_your_turn")))

	SessionRunning.Set(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(SessionRunning))
	SessionRunning.Set(0)
}

func TestCollectorsRegistered(t *testing.T) {
	Rounds.WithLabelValues("finished").Add(0)
	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "hazz2_rounds_total", "hazz2_session_running")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}
