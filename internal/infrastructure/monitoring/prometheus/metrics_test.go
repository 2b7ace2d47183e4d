package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New("casework")

	m.TransitionsTotal.WithLabelValues("statements").Inc()
	m.TransitionConflicts.Inc()
	m.NotificationsTotal.WithLabelValues("stage_shared", "sent").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("statements")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("stage_shared", "sent")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["casework_status_transitions_total"])
	assert.True(t, names["casework_notifications_total"])
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New("casework")
	b := New("casework")
	a.TransitionConflicts.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TransitionConflicts))
}
