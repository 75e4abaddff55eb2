package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets/details/:id", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/tickets/details/:id", "GET", 200, 5*time.Millisecond)
	m.RecordError("/tickets/create", "POST", "FORBIDDEN")
	m.RecordTransition("PENDING", "IN_PROGRESS", "DERIVED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets/details/:id|GET|200"])
	assert.Equal(t, int64(20), snap.LatencyMS["/tickets/details/:id|GET"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/create|POST|FORBIDDEN"])
	assert.Equal(t, int64(1), snap.Transitions["PENDING->IN_PROGRESS|DERIVED"])

	m.RecordTransition("PENDING", "IN_PROGRESS", "DERIVED")
	assert.Equal(t, int64(1), snap.Transitions["PENDING->IN_PROGRESS|DERIVED"], "snapshot is a copy")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordTransition("a", "b", "c")
	assert.Empty(t, m.Snapshot().Requests)
}
