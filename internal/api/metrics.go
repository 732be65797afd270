package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/version"
)

// Metrics counts game activity for the /metrics endpoint. It is an
// events.Sink: register it with events.AddSink to feed the counters.
type Metrics struct {
	mu              sync.RWMutex
	startTime       time.Time
	name            string
	sessionsStarted uint64
	choicesApplied  uint64
	gamesWon        uint64
	gamesLost       uint64
}

// NewMetrics starts the uptime clock.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// SetName sets the server name used as a metric label.
func (m *Metrics) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
}

// Write implements events.Sink.
func (m *Metrics) Write(e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e.Name {
	case "session.started":
		m.sessionsStarted++
	case "choice.applied":
		m.choicesApplied++
	case "game.won":
		m.gamesWon++
	case "game.lost":
		m.gamesLost++
	}
	return nil
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	SessionsStarted uint64
	ChoicesApplied  uint64
	GamesWon        uint64
	GamesLost       uint64
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		SessionsStarted: m.sessionsStarted,
		ChoicesApplied:  m.choicesApplied,
		GamesWon:        m.gamesWon,
		GamesLost:       m.gamesLost,
	}
}

// handler returns Prometheus-compatible metrics in text format.
func (m *Metrics) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	startTime := m.startTime
	name := m.name
	m.mu.RUnlock()
	snap := m.Snapshot()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	labels := fmt.Sprintf(`server="%s",instance="%s",version="%s"`, name, hostname, version.Version)

	writeMetric("treasureland_uptime_seconds", "gauge",
		"Number of seconds since the server started", time.Since(startTime).Seconds(), labels)
	writeMetric("treasureland_sessions_started_total", "counter",
		"Game sessions created since startup", snap.SessionsStarted, labels)
	writeMetric("treasureland_choices_total", "counter",
		"Choices applied since startup", snap.ChoicesApplied, labels)
	writeMetric("treasureland_games_won_total", "counter",
		"Games won since startup", snap.GamesWon, labels)
	writeMetric("treasureland_games_lost_total", "counter",
		"Games lost since startup", snap.GamesLost, labels)
	writeMetric("treasureland_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount(), labels)
	writeMetric("treasureland_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount(), labels)
	writeMetric("treasureland_ws_dropped_events_total", "counter",
		"Live events skipped for WebSocket clients that fell behind", events.DroppedCount(), labels)
}
