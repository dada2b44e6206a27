package routes

import (
	"amora_server/controllers"
	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// RegisterActionRoutes sets up the like/pass action route under /api/action
func RegisterActionRoutes(r *mux.Router, interactionService *services.InteractionService) {
	controller := controllers.NewInteractionController(interactionService)

	actionRouter := r.PathPrefix("/api/action").Subrouter()
	actionRouter.Use(middleware.RequireUser)

	actionRouter.HandleFunc("", controller.HandleAction).Methods("POST")
}
