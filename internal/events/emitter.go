package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var buffer = NewRingBuffer(256)

// Sink receives every emitted event after it is buffered, e.g. a Postgres
// event log or an MQTT publisher.
type Sink interface {
	Write(e Event) error
}

type sinkEntry struct {
	name        string
	sink        Sink
	errorLogged bool
}

var (
	sinks  []*sinkEntry
	sinkMu sync.RWMutex
)

// AddSink registers a sink under name. Emit writes to sinks in registration order.
func AddSink(name string, s Sink) {
	sinkMu.Lock()
	sinks = append(sinks, &sinkEntry{name: name, sink: s})
	sinkMu.Unlock()
}

// ClearSinks removes all sinks. Used for shutdown and testing.
func ClearSinks() {
	sinkMu.Lock()
	sinks = nil
	sinkMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Time parses the event timestamp, returning the zero time if it is malformed.
func (e Event) Time() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// SessionID returns the session_id field, if any.
func (e Event) SessionID() string {
	if s, ok := e.Fields["session_id"].(string); ok {
		return s
	}
	return ""
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	broadcast(e)
	writeSinks(e)

	log.Debug().Str("event", name).Fields(fields).Msg(msg)

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

// writeSinks delivers e to every sink. A failing sink is reported once per
// sink, directly into the ring buffer rather than through Emit, so a sink
// that keeps failing cannot recurse.
func writeSinks(e Event) {
	sinkMu.RLock()
	current := append([]*sinkEntry(nil), sinks...)
	sinkMu.RUnlock()

	for _, entry := range current {
		if err := entry.sink.Write(e); err != nil {
			sinkMu.Lock()
			first := !entry.errorLogged
			entry.errorLogged = true
			sinkMu.Unlock()

			if !first {
				continue
			}
			log.Error().Err(err).Str("sink", entry.name).Msg("event sink write failed")
			buffer.Add(Event{
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
				Level:     "error",
				Name:      "system.error",
				Message:   entry.name + " write failed",
				Fields: map[string]interface{}{
					"error": err.Error(),
				},
			})
		}
	}
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() uint64 {
	return buffer.Total()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
