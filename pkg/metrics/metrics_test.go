package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewSet(reg)
	require.NoError(t, err)

	s.SnapshotsApplied.Inc()
	s.SnapshotsApplied.Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(s.SnapshotsApplied))

	// Registering again reuses the existing collectors.
	again, err := NewSet(reg)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(again.SnapshotsApplied))
}

func TestCommandResult(t *testing.T) {
	s := NewNop()
	s.CommandResult("set_status", nil)
	s.CommandResult("set_status", nil)
	s.CommandResult("set_status", assert.AnError)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Commands.WithLabelValues("set_status", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Commands.WithLabelValues("set_status", "failure")))
}
