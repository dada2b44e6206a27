package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"amora_server/middleware"
	"amora_server/models"
	"amora_server/services"
)

// UserProfileController handles HTTP requests for profile CRUD
type UserProfileController struct {
	Service *services.UserProfileService
}

// NewUserProfileController creates a new UserProfileController instance
func NewUserProfileController(service *services.UserProfileService) *UserProfileController {
	return &UserProfileController{Service: service}
}

// CreateProfile creates the caller's profile and generates its embedding.
func (upc *UserProfileController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	profile.UserID = middleware.UserID(r)

	created, err := upc.Service.AddUserProfile(r.Context(), profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetProfile returns the caller's own profile.
func (upc *UserProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	profile, err := upc.Service.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the caller's profile.
func (upc *UserProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID := middleware.UserID(r)
	updated, err := upc.Service.UpdateUserProfile(r.Context(), userID, updates)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProfile removes the caller's profile.
func (upc *UserProfileController) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	if err := upc.Service.DeleteUserProfile(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile deleted"})
}
