package logging

import (
	"sync"
	"time"
)

// Metrics tracks policy-read and simulation API usage for one run
type Metrics struct {
	StartTime        time.Time                 `json:"start_time"`
	APICalls         map[string]APICallMetrics `json:"api_calls"`
	TotalAPICalls    int                       `json:"total_api_calls"`
	TotalSuccess     int                       `json:"total_success"`
	TotalFailures    int                       `json:"total_failures"`
	SimulationCalls  int                       `json:"simulation_calls"`
	ThrottledRetries int                       `json:"throttled_retries"`
	mu               sync.RWMutex
}

// APICallMetrics tracks metrics for a specific API call
type APICallMetrics struct {
	Count       int      `json:"count"`
	Success     int      `json:"success"`
	Failures    int      `json:"failures"`
	SuccessRate float64  `json:"success_rate"`
	Errors      []string `json:"errors,omitempty"`
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance (singleton)
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			StartTime: time.Now(),
			APICalls:  make(map[string]APICallMetrics),
		}
	})
	return globalMetrics
}

// RecordAPICall records an API call with success/failure
func (m *Metrics) RecordAPICall(apiName string, success bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalAPICalls++
	if success {
		m.TotalSuccess++
	} else {
		m.TotalFailures++
	}

	metrics := m.APICalls[apiName]
	metrics.Count++
	if success {
		metrics.Success++
	} else {
		metrics.Failures++
		if err != nil && len(metrics.Errors) < 10 {
			metrics.Errors = append(metrics.Errors, err.Error())
		}
	}
	if metrics.Count > 0 {
		metrics.SuccessRate = float64(metrics.Success) / float64(metrics.Count) * 100
	}
	m.APICalls[apiName] = metrics
}

// RecordSimulation counts one SimulateCustomPolicy round trip
func (m *Metrics) RecordSimulation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SimulationCalls++
}

// RecordThrottledRetry counts one backoff-and-retry cycle
func (m *Metrics) RecordThrottledRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ThrottledRetries++
}
