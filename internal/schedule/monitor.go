package schedule

import (
	"strings"
	"sync"
	"time"
)

// Monitor tracks schedule page fetches so a long import can report whether
// the source is still reachable
type Monitor struct {
	mu                   sync.RWMutex
	total                int64
	succeeded            int64
	failed               int64
	consecutiveFailures  int64
	lastFailure          time.Time
	lastSuccess          time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
}

// FailureRecord is one failed fetch
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Kind      string    `json:"kind"`
}

// FetchStatus is a snapshot of the monitor
type FetchStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	Issues              []string        `json:"issues"`
}

// NewMonitor creates a monitor that turns unhealthy above a 20% failure rate
// (after ten requests) or after five failures in a row
func NewMonitor() *Monitor {
	return &Monitor{
		maxRecentFailures:    20,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
	}
}

// RecordSuccess records a successful fetch
func (m *Monitor) RecordSuccess(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.succeeded++
	m.consecutiveFailures = 0
	m.lastSuccess = time.Now()
}

// RecordFailure records a failed fetch
func (m *Monitor) RecordFailure(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.total++
	m.failed++
	m.consecutiveFailures++
	m.lastFailure = now

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.recentFailures = append(m.recentFailures, FailureRecord{
		Timestamp: now,
		URL:       url,
		Error:     msg,
		Kind:      categorizeError(msg),
	})
	if len(m.recentFailures) > m.maxRecentFailures {
		m.recentFailures = m.recentFailures[1:]
	}
}

// Status returns the current health snapshot
func (m *Monitor) Status() FetchStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := FetchStatus{
		IsHealthy:           true,
		TotalRequests:       m.total,
		SuccessfulRequests:  m.succeeded,
		FailedRequests:      m.failed,
		SuccessRate:         1.0,
		ConsecutiveFailures: m.consecutiveFailures,
		RecentFailures:      append([]FailureRecord{}, m.recentFailures...),
		Issues:              []string{},
	}
	if m.total > 0 {
		status.SuccessRate = float64(m.succeeded) / float64(m.total)
	}
	if !m.lastFailure.IsZero() {
		t := m.lastFailure
		status.LastFailureTime = &t
	}
	if !m.lastSuccess.IsZero() {
		t := m.lastSuccess
		status.LastSuccessTime = &t
	}

	if m.total >= 10 && status.SuccessRate < 1.0-m.failureThreshold {
		status.IsHealthy = false
		status.Issues = append(status.Issues, "high failure rate")
	}
	if m.consecutiveFailures >= m.consecutiveThreshold {
		status.IsHealthy = false
		status.Issues = append(status.Issues, "consecutive failures")
	}
	if kind := dominantKind(m.recentFailures); kind != "" {
		status.Issues = append(status.Issues, "mostly "+kind+" errors")
	}

	return status
}

// IsHealthy reports whether fetches are within the thresholds
func (m *Monitor) IsHealthy() bool {
	return m.Status().IsHealthy
}

// Reset clears all counters
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = 0
	m.succeeded = 0
	m.failed = 0
	m.consecutiveFailures = 0
	m.lastFailure = time.Time{}
	m.lastSuccess = time.Time{}
	m.recentFailures = nil
}

// dominantKind returns the error kind behind more than half of at least
// three recent failures
func dominantKind(failures []FailureRecord) string {
	if len(failures) < 3 {
		return ""
	}
	counts := make(map[string]int)
	for _, f := range failures {
		counts[f.Kind]++
	}
	for kind, n := range counts {
		if kind != "other" && n*2 > len(failures) {
			return kind
		}
	}
	return ""
}

func categorizeError(msg string) string {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return "rate_limit"
	case strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return "authentication"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host"):
		return "network"
	case strings.Contains(msg, "404"):
		return "not_found"
	}
	return "other"
}
