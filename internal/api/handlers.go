// Package api implements the HTTP surface: score updates, top-N queries,
// and status/health endpoints. Request validation lives here; input errors
// never reach the update engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
)

// announcer receives each committed update for realtime fanout.
type announcer interface {
	ScoreUpdated(res *leaderboard.UpdateResult)
}

// instanceStatus lets the status endpoint report transport state.
type instanceStatus interface {
	ClientCount() int
	RoomCount() int
}

// Handlers holds API handler dependencies.
type Handlers struct {
	engine       *leaderboard.Engine
	announcer    announcer
	status       instanceStatus
	relayEnabled bool
	log          *zap.SugaredLogger
}

// NewHandlers creates a new API handlers instance.
func NewHandlers(engine *leaderboard.Engine, a announcer, status instanceStatus, relayEnabled bool, log *zap.SugaredLogger) *Handlers {
	return &Handlers{
		engine:       engine,
		announcer:    a,
		status:       status,
		relayEnabled: relayEnabled,
		log:          log,
	}
}

// RegisterRoutes registers API routes.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/leaderboard/score", h.PostScore)
	r.Get("/leaderboard/top", h.GetTop)
	r.Get("/status", h.GetStatus)
	r.Get("/health", h.GetHealth)
}

// updateRequest is the POST /leaderboard/score body. PlayerID accepts a
// string or a number and is coerced to a string.
type updateRequest struct {
	PlayerID   any      `json:"playerId"`
	Name       string   `json:"name"`
	Region     string   `json:"region"`
	Mode       string   `json:"mode"`
	ScoreDelta *float64 `json:"scoreDelta"`
	ScoreSet   *float64 `json:"scoreSet"`
}

// validate coerces and checks the request, returning the player id.
func (req *updateRequest) validate() (string, error) {
	var playerID string
	switch v := req.PlayerID.(type) {
	case string:
		playerID = strings.TrimSpace(v)
	case float64:
		playerID = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
	default:
		return "", errors.New("playerId must be a string or number")
	}
	if playerID == "" {
		return "", errors.New("playerId is required")
	}
	if strings.TrimSpace(req.Region) == "" {
		return "", errors.New("region is required")
	}
	if strings.TrimSpace(req.Mode) == "" {
		return "", errors.New("mode is required")
	}
	if req.ScoreDelta == nil && req.ScoreSet == nil {
		return "", errors.New("provide scoreDelta or scoreSet")
	}
	return playerID, nil
}

type updateResponse struct {
	OK bool `json:"ok"`
	leaderboard.UpdateResult
}

// PostScore applies one score event and triggers the broadcast fanout.
func (h *Handlers) PostScore(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	playerID, err := req.validate()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.UpdateScore(r.Context(), leaderboard.ScoreEvent{
		PlayerID:   playerID,
		Name:       req.Name,
		Region:     req.Region,
		Mode:       req.Mode,
		ScoreDelta: req.ScoreDelta,
		ScoreSet:   req.ScoreSet,
	})
	if err != nil {
		h.log.Errorw("score update failed", "playerId", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if h.announcer != nil {
		h.announcer.ScoreUpdated(res)
	}

	respondJSON(w, http.StatusOK, updateResponse{OK: true, UpdateResult: *res})
}

// GetTop serves a versioned top-N snapshot.
func (h *Handlers) GetTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		// An explicit non-positive limit clamps to the minimum here, since
		// the engine treats zero as "unset".
		if n < 1 {
			n = 1
		}
		limit = n
	}

	snap, err := h.engine.TopPlayers(r.Context(), leaderboard.TopQuery{
		Region: q.Get("region"),
		Mode:   q.Get("mode"),
		Limit:  limit,
	})
	if err != nil {
		h.log.Errorw("top query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetStatus returns instance status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"dateKey":      h.engine.Partitioner().CurrentDateKey(),
		"timeZone":     h.engine.Partitioner().Zone(),
		"clients":      h.status.ClientCount(),
		"rooms":        h.status.RoomCount(),
		"relayEnabled": h.relayEnabled,
	})
}

// GetHealth is the liveness probe.
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
