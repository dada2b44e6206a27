package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	appconfig "amora_server/config"
	"amora_server/metrics"
	"amora_server/routes"
	"amora_server/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient(ctx, cfg)
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Shared collaborators
	gemini := services.NewGeminiClient(cfg)
	cache := services.NewCacheService(cfg.DiscoverCacheSize, cfg.DiscoverCacheTTL)
	interactionStore := &services.DynamoInteractionStore{Dynamo: dynamoService}

	// Initialize Services
	profileService := &services.UserProfileService{
		Dynamo:   dynamoService,
		Embedder: gemini,
		Cache:    cache,
	}
	interactionService := &services.InteractionService{
		Store:          interactionStore,
		Profiles:       profileService,
		Explain:        gemini,
		Cache:          cache,
		ExplainTimeout: cfg.ExplainTimeout,
	}
	discoveryService := &services.DiscoveryService{
		Profiles:       profileService,
		Interactions:   interactionService,
		Explain:        gemini,
		Cache:          cache,
		ExplainTimeout: cfg.ExplainTimeout,
	}
	chatService := &services.ChatService{
		Dynamo:       dynamoService,
		Interactions: interactionService,
	}
	s3Service := services.NewS3Service(ctx, cfg)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Amora")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Register routes
	routes.RegisterUserProfileRoutes(r, profileService)
	routes.RegisterActionRoutes(r, interactionService)
	routes.RegisterMatchRoutes(r, discoveryService, interactionService, profileService, cfg)
	routes.RegisterChatRoutes(r, chatService)
	routes.RegisterS3Routes(r, s3Service)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-Id"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsHandler))
}
