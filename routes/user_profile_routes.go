package routes

import (
	"amora_server/controllers"
	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up profile CRUD routes under /api/profile
func RegisterUserProfileRoutes(r *mux.Router, profileService *services.UserProfileService) {
	controller := controllers.NewUserProfileController(profileService)

	profileRouter := r.PathPrefix("/api/profile").Subrouter()
	profileRouter.Use(middleware.RequireUser)

	profileRouter.HandleFunc("", controller.CreateProfile).Methods("POST")
	profileRouter.HandleFunc("", controller.GetProfile).Methods("GET")
	profileRouter.HandleFunc("", controller.UpdateProfile).Methods("PATCH")
	profileRouter.HandleFunc("", controller.DeleteProfile).Methods("DELETE")
}
