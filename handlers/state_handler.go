package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/services"
	"finnduel-overlay-backend/suspension"
)

// StateHandler handles overlay state requests
type StateHandler struct {
	stateService *services.StateService
	schedule     *suspension.Schedule
	hub          *services.Hub
}

// NewStateHandler creates a new state handler
func NewStateHandler(stateService *services.StateService, schedule *suspension.Schedule, hub *services.Hub) *StateHandler {
	return &StateHandler{
		stateService: stateService,
		schedule:     schedule,
		hub:          hub,
	}
}

// GetState handles GET /api/overlay/state
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateService.GetState())
}

// UpdatePlayback handles POST /api/overlay/playback
func (h *StateHandler) UpdatePlayback(w http.ResponseWriter, r *http.Request) {
	var event models.PlaybackEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Debug().Err(err).Msg("UpdatePlayback: invalid JSON")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	snap, err := h.stateService.Apply(event)
	if err != nil {
		if errors.Is(err, services.ErrUnknownEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("UpdatePlayback: failed to apply event")
		http.Error(w, "Failed to update state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// SelectCategory handles POST /api/overlay/category
func (h *StateHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategorySelection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		http.Error(w, "Category is required", http.StatusBadRequest)
		return
	}

	snap, err := h.stateService.SelectCategory(req.Category)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCategory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to select category", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Evaluate handles GET /api/overlay/evaluate?position=
func (h *StateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("position")
	position, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		http.Error(w, "position must be a number of seconds", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, models.EvaluateResponse{
		Position: raw,
		Status:   h.schedule.Evaluate(position),
	})
}

// GetWindows handles GET /api/overlay/windows
func (h *StateHandler) GetWindows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schedule.Windows())
}

// Stream handles GET /api/overlay/ws
func (h *StateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.ServeWS(w, r); err != nil {
		// The upgrader has already written an error response.
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Stream: websocket upgrade failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
