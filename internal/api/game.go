package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AaronLay10/TreasureLand/internal/wire"
)

const (
	defaultLeaderboardLimit = 10

	// maxChoiceBody bounds a choice request; choices are single keys.
	maxChoiceBody = 4 << 10
)

func (s *Server) startHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.game.Create(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeGameError(w, err)
		return
	}

	view, ok := s.game.Engine().View(sess.CurrentNode)
	if !ok {
		view = s.game.Engine().Start()
	}
	writeJSON(w, http.StatusOK, wire.NewStartResponse(sess, view))
}

func (s *Server) choiceHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChoiceBody)

	var req wire.ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Choice == nil {
		writeError(w, http.StatusBadRequest, "choice is required")
		return
	}

	sess, outcome, err := s.game.ApplyChoice(r.Context(), r.PathValue("session_id"), *req.Choice)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewChoiceResponse(sess, outcome))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.game.Status(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewStatusResponse(sess))
}

func (s *Server) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.game.Leaderboard(r.Context(), limit)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewLeaderboardResponse(entries))
}
