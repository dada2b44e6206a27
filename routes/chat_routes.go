package routes

import (
	"amora_server/controllers"
	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up messaging routes under /api/chat
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService) {
	controller := controllers.NewChatController(chatService)

	chatRouter := r.PathPrefix("/api/chat").Subrouter()
	chatRouter.Use(middleware.RequireUser)

	chatRouter.HandleFunc("/message", controller.SendMessage).Methods("POST")
	chatRouter.HandleFunc("/{userId}/messages", controller.GetMessages).Methods("GET")
	chatRouter.HandleFunc("/{userId}/read", controller.MarkRead).Methods("POST")
}
