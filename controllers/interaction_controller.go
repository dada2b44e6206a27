package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"amora_server/middleware"
	"amora_server/models"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// InteractionAPI is the interaction surface the controller fronts.
type InteractionAPI interface {
	ProcessAction(ctx context.Context, actorID, targetID, action string) (*services.ActionResult, error)
	GetCurrentMatches(ctx context.Context, userID string) ([]models.MatchedUser, error)
	GetMatchDetail(ctx context.Context, userID, otherUserID string) (*models.MatchedUser, error)
}

// InteractionController handles HTTP requests for like/pass actions and
// match listings
type InteractionController struct {
	Interactions InteractionAPI
}

// NewInteractionController creates a new InteractionController instance
func NewInteractionController(interactions InteractionAPI) *InteractionController {
	return &InteractionController{Interactions: interactions}
}

// HandleAction processes a like or pass on a candidate.
func (ic *InteractionController) HandleAction(w http.ResponseWriter, r *http.Request) {
	var request struct {
		TargetUserID string `json:"targetUserId"`
		Action       string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.TargetUserID == "" || request.Action == "" {
		writeError(w, http.StatusBadRequest, "targetUserId and action are required")
		return
	}

	userID := middleware.UserID(r)
	result, err := ic.Interactions.ProcessAction(r.Context(), userID, request.TargetUserID, request.Action)
	switch {
	case errors.Is(err, services.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "Invalid action. Must be 'like' or 'pass'")
		return
	case errors.Is(err, services.ErrSelfAction):
		writeError(w, http.StatusBadRequest, "Cannot match with yourself")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to process match action")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetCurrentMatches lists the user's mutual matches.
func (ic *InteractionController) GetCurrentMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	matches, err := ic.Interactions.GetCurrentMatches(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch matches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"total":   len(matches),
	})
}

// GetMatchDetail returns the counterpart profile of an active match.
func (ic *InteractionController) GetMatchDetail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	otherUserID := mux.Vars(r)["userId"]

	detail, err := ic.Interactions.GetMatchDetail(r.Context(), userID, otherUserID)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Match not found")
		return
	case errors.Is(err, services.ErrNotMatched):
		writeError(w, http.StatusBadRequest, "This is not an active match")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to fetch match details")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
