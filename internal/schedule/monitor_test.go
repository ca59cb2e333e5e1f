package schedule

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_RecordSuccessAndFailure(t *testing.T) {
	monitor := NewMonitor()
	assert.True(t, monitor.IsHealthy(), "new monitor should be healthy")

	monitor.RecordSuccess("https://example.com/week/1")
	monitor.RecordSuccess("https://example.com/week/2")
	monitor.RecordSuccess("https://example.com/week/3")

	status := monitor.Status()
	assert.Equal(t, int64(3), status.TotalRequests)
	assert.Equal(t, int64(3), status.SuccessfulRequests)
	assert.Equal(t, 1.0, status.SuccessRate)
	assert.NotNil(t, status.LastSuccessTime)
	assert.Nil(t, status.LastFailureTime)

	monitor.RecordFailure("https://example.com/week/4", errors.New("connection refused"))

	status = monitor.Status()
	assert.Equal(t, int64(4), status.TotalRequests)
	assert.Equal(t, int64(1), status.FailedRequests)
	assert.Equal(t, 0.75, status.SuccessRate)
	require.Len(t, status.RecentFailures, 1)
	assert.Equal(t, "network", status.RecentFailures[0].Kind)
	assert.True(t, status.IsHealthy, "one failure in four is under the request floor")
}

func TestMonitor_ConsecutiveFailures(t *testing.T) {
	monitor := NewMonitor()

	for i := 0; i < 5; i++ {
		monitor.RecordFailure("https://example.com", errors.New("unexpected status 500"))
	}

	status := monitor.Status()
	assert.False(t, status.IsHealthy)
	assert.Equal(t, int64(5), status.ConsecutiveFailures)
	assert.Contains(t, status.Issues, "consecutive failures")

	monitor.RecordSuccess("https://example.com")
	assert.Equal(t, int64(0), monitor.Status().ConsecutiveFailures)
}

func TestMonitor_HighFailureRate(t *testing.T) {
	monitor := NewMonitor()

	// alternate so the consecutive threshold is never reached
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			monitor.RecordFailure("https://example.com", errors.New("context deadline exceeded"))
		} else {
			monitor.RecordSuccess("https://example.com")
		}
	}

	status := monitor.Status()
	assert.False(t, status.IsHealthy)
	assert.Contains(t, status.Issues, "high failure rate")
	assert.Contains(t, status.Issues, "mostly timeout errors")
}

func TestMonitor_RecentFailuresAreCapped(t *testing.T) {
	monitor := NewMonitor()

	for i := 0; i < 25; i++ {
		monitor.RecordFailure(fmt.Sprintf("https://example.com/%d", i), errors.New("boom"))
	}

	status := monitor.Status()
	require.Len(t, status.RecentFailures, 20)
	assert.Equal(t, "https://example.com/5", status.RecentFailures[0].URL)
	assert.Equal(t, "https://example.com/24", status.RecentFailures[19].URL)
}

func TestMonitor_Reset(t *testing.T) {
	monitor := NewMonitor()
	for i := 0; i < 6; i++ {
		monitor.RecordFailure("https://example.com", nil)
	}
	require.False(t, monitor.IsHealthy())

	monitor.Reset()

	status := monitor.Status()
	assert.True(t, status.IsHealthy)
	assert.Zero(t, status.TotalRequests)
	assert.Empty(t, status.RecentFailures)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Get \"x\": context deadline exceeded", "timeout"},
		{"unexpected status 429", "rate_limit"},
		{"unexpected status 403", "authentication"},
		{"dial tcp: lookup nowhere: no such host", "network"},
		{"unexpected status 404", "not_found"},
		{"something else", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeError(tt.msg), tt.msg)
	}
}
