package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appconfig "amora_server/config"
	"amora_server/middleware"
	"amora_server/models"
	"amora_server/services"
)

// Discoverer is the discovery operation the controller fronts.
type Discoverer interface {
	Discover(ctx context.Context, userID string, limit int, f services.DiscoveryFilters) ([]models.MatchCandidate, error)
}

// DiscoveryController handles HTTP requests for match discovery
type DiscoveryController struct {
	Discovery Discoverer
	Config    *appconfig.Config
}

// NewDiscoveryController creates a new DiscoveryController instance
func NewDiscoveryController(discovery Discoverer, cfg *appconfig.Config) *DiscoveryController {
	return &DiscoveryController{Discovery: discovery, Config: cfg}
}

// Discover returns ranked, annotated match candidates for the current user.
// An empty list is a success; callers distinguish it from the 400 returned
// when the profile has no embedding yet.
func (dc *DiscoveryController) Discover(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	query := r.URL.Query()

	limit := dc.Config.DiscoverDefaultLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > dc.Config.DiscoverMaxLimit {
		limit = dc.Config.DiscoverMaxLimit
	}

	filters := services.DiscoveryFilters{Gender: query.Get("gender")}
	minAge, ok := parseOptionalInt(w, query.Get("min_age"), "min_age")
	if !ok {
		return
	}
	filters.MinAge = minAge
	maxAge, ok := parseOptionalInt(w, query.Get("max_age"), "max_age")
	if !ok {
		return
	}
	filters.MaxAge = maxAge

	matches, err := dc.Discovery.Discover(r.Context(), userID, limit, filters)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	case errors.Is(err, services.ErrIncompleteProfile):
		writeError(w, http.StatusBadRequest, "Please complete your profile to get matches")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to find matches")
		return
	}

	message := "Matches retrieved successfully"
	if len(matches) == 0 {
		message = "No new matches available right now."
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"total":   len(matches),
		"message": message,
	})
}

func parseOptionalInt(w http.ResponseWriter, raw, name string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be an integer")
		return nil, false
	}
	return &parsed, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
