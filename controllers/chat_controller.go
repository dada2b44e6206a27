package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// ChatController handles HTTP requests for messaging between matched users
type ChatController struct {
	Service *services.ChatService
}

// NewChatController creates a new ChatController instance
func NewChatController(service *services.ChatService) *ChatController {
	return &ChatController{Service: service}
}

// SendMessage stores a message to a matched user.
func (cc *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		TargetUserID string `json:"targetUserId"`
		Content      string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.TargetUserID == "" || request.Content == "" {
		writeError(w, http.StatusBadRequest, "targetUserId and content are required")
		return
	}

	userID := middleware.UserID(r)
	message, err := cc.Service.SendMessage(r.Context(), userID, request.TargetUserID, request.Content)
	switch {
	case errors.Is(err, services.ErrNotMatched):
		writeError(w, http.StatusForbidden, "You can only message matched users")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

// GetMessages lists the conversation with a matched user, newest first.
func (cc *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	otherUserID := mux.Vars(r)["userId"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := cc.Service.GetMessages(r.Context(), userID, otherUserID, limit)
	switch {
	case errors.Is(err, services.ErrNotMatched):
		writeError(w, http.StatusForbidden, "You can only view conversations with matched users")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    len(messages),
	})
}

// MarkRead marks the counterpart's messages as read.
func (cc *ChatController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	otherUserID := mux.Vars(r)["userId"]

	err := cc.Service.MarkMessagesAsRead(r.Context(), userID, otherUserID)
	switch {
	case errors.Is(err, services.ErrNotMatched):
		writeError(w, http.StatusForbidden, "You can only update conversations with matched users")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to mark messages read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Messages marked as read"})
}
