package routes

import (
	"net/http"

	appconfig "amora_server/config"
	"amora_server/controllers"
	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for discovery and match listings under
// /api/match. Discovery additionally requires an active premium
// subscription; the gates are composed explicitly so each route declares
// what it needs.
func RegisterMatchRoutes(
	r *mux.Router,
	discoveryService *services.DiscoveryService,
	interactionService *services.InteractionService,
	profileService *services.UserProfileService,
	cfg *appconfig.Config,
) {
	discoveryController := controllers.NewDiscoveryController(discoveryService, cfg)
	interactionController := controllers.NewInteractionController(interactionService)

	premium := middleware.RequirePremium(profileService)

	matchRouter := r.PathPrefix("/api/match").Subrouter()
	matchRouter.Use(middleware.RequireUser)

	matchRouter.Handle("/discover", premium(http.HandlerFunc(discoveryController.Discover))).Methods("GET")
	matchRouter.HandleFunc("/matches", interactionController.GetCurrentMatches).Methods("GET")
	matchRouter.HandleFunc("/{userId}", interactionController.GetMatchDetail).Methods("GET")
}
