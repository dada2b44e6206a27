package routes

import (
	"amora_server/controllers"
	"amora_server/middleware"
	"amora_server/services"

	"github.com/gorilla/mux"
)

// RegisterS3Routes sets up presigned photo URL routes under /api/s3
func RegisterS3Routes(r *mux.Router, s3Service *services.S3Service) {
	controller := controllers.NewS3Controller(s3Service)

	s3Router := r.PathPrefix("/api/s3").Subrouter()
	s3Router.Use(middleware.RequireUser)

	s3Router.HandleFunc("/uploadUrl", controller.GetUploadURL).Methods("GET")
	s3Router.HandleFunc("/readUrl", controller.GetReadURL).Methods("GET")
}
