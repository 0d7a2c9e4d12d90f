package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestHelpers(t *testing.T) {
	before := testutil.ToFloat64(resolvedTotal.WithLabelValues("incident", "met"))
	Resolved("incident", "met")
	assert.Equal(t, before+1, testutil.ToFloat64(resolvedTotal.WithLabelValues("incident", "met")))

	ObserveSweep(time.Millisecond, 2, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(alertLevels.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(alertLevels.WithLabelValues("critical")))

	rate := 87.5
	SetComplianceRate("incident", &rate)
	assert.Equal(t, 87.5, testutil.ToFloat64(complianceRate.WithLabelValues("incident")))
	SetComplianceRate("incident", nil)
	assert.Equal(t, 0, testutil.CollectAndCount(complianceRate))

	failedBefore := testutil.ToFloat64(notificationsTotal.WithLabelValues("kafka", "failed"))
	Delivery("kafka", errors.New("down"))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("kafka", "failed")))
}
