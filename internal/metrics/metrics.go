package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Pipeline metrics
	PipelineRunsTotal    int64
	runsByStatus         map[string]int64
	DetectionsTotal      int64
	detectionsByType     map[string]int64
	ActionsExecutedTotal int64
	ActionsFailedTotal   int64
	lastRunDuration      time.Duration

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			runsByStatus:         make(map[string]int64),
			detectionsByType:     make(map[string]int64),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordPipelineRun records the outcome of one pipeline run
func (m *Metrics) RecordPipelineRun(status string, duration time.Duration, detections, actions int) {
	m.mu.Lock()
	m.PipelineRunsTotal++
	m.runsByStatus[status]++
	m.DetectionsTotal += int64(detections)
	m.ActionsExecutedTotal += int64(actions)
	m.lastRunDuration = duration
	m.mu.Unlock()
}

// RecordDetection tallies a detection by inefficiency type
func (m *Metrics) RecordDetection(ineffType string) {
	m.mu.Lock()
	m.detectionsByType[ineffType]++
	m.mu.Unlock()
}

// RecordActionFailure increments the failed action counter
func (m *Metrics) RecordActionFailure() {
	m.mu.Lock()
	m.ActionsFailedTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("aoia_uptime_seconds", time.Since(m.startTime).Seconds())

		// Pipeline metrics
		write("aoia_pipeline_runs_total", m.PipelineRunsTotal)
		for status, count := range m.runsByStatus {
			write("aoia_pipeline_runs_by_status", count, "status", status)
		}
		write("aoia_detections_total", m.DetectionsTotal)
		for ineffType, count := range m.detectionsByType {
			write("aoia_detections_by_type", count, "type", ineffType)
		}
		write("aoia_actions_executed_total", m.ActionsExecutedTotal)
		write("aoia_actions_failed_total", m.ActionsFailedTotal)
		write("aoia_last_run_duration_seconds", m.lastRunDuration.Seconds())

		// WebSocket metrics
		write("aoia_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("aoia_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("aoia_websocket_active_connections", m.activeConnections)
		write("aoia_websocket_messages_total", m.WebSocketMessagesTotal)
		write("aoia_websocket_errors_total", m.WebSocketErrorsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("aoia_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
