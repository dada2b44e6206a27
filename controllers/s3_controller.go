package controllers

import (
	"net/http"

	"amora_server/services"
)

// S3Controller handles HTTP requests for presigned photo URLs
type S3Controller struct {
	Service *services.S3Service
}

// NewS3Controller creates a new S3Controller instance
func NewS3Controller(service *services.S3Service) *S3Controller {
	return &S3Controller{Service: service}
}

// GetUploadURL returns a presigned URL for uploading a profile photo.
func (sc *S3Controller) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	fileType := r.URL.Query().Get("fileType")
	if fileName == "" || fileType == "" {
		writeError(w, http.StatusBadRequest, "fileName and fileType are required")
		return
	}

	url, key, err := sc.Service.GenerateUploadURL(r.Context(), fileName, fileType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uploadUrl": url, "key": key})
}

// GetReadURL returns a presigned URL for reading a stored photo.
func (sc *S3Controller) GetReadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	url, err := sc.Service.GenerateReadURL(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate read URL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"readUrl": url})
}
