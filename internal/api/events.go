package api

import (
	"net/http"

	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/storage/postgres"
)

const eventsQueryLimit = 100

// eventsHandler lists recent events, optionally for one session. With a
// Postgres event log the history survives restarts; otherwise it is the
// in-memory buffer.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	if s.opts.EventLog == nil {
		writeJSON(w, http.StatusOK, eventsSnapshot(sessionID))
		return
	}

	rows, err := s.opts.EventLog.Query(r.Context(), eventsQueryLimit, sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if rows == nil {
		rows = []postgres.EventRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func eventsSnapshot(sessionID string) []events.Event {
	return events.RecentEvents(0, sessionID)
}
