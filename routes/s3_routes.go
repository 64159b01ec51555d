package routes

import (
	"huddle_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterS3Routes registers S3 presigned URL routes
func RegisterS3Routes(r *mux.Router) {
	s3Router := r.PathPrefix("/api/s3").Subrouter()
	s3Router.HandleFunc("/generate-presigned-url", controllers.GeneratePresignedURL).Methods("POST")
	s3Router.HandleFunc("/generate-read-url", controllers.GetPresignedReadURL).Methods("POST")
}
