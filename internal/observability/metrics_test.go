package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/pets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/pets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/pets/:id", "DELETE", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/pets|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMillis["/pets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/pets/:id|DELETE|FORBIDDEN"])

	snap.Requests["/pets|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/pets|GET|200"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
