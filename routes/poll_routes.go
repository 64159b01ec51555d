package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterPollRoutes registers poll routes
func RegisterPollRoutes(r *mux.Router, pollService *services.PollService) {
	controller := controllers.NewPollController(pollService)

	pollRouter := r.PathPrefix("/api/polls").Subrouter()
	pollRouter.HandleFunc("/{groupId}", controller.HandleCreatePoll).Methods("POST")
	pollRouter.HandleFunc("/{groupId}/active", controller.HandleListActivePolls).Methods("GET")
	pollRouter.HandleFunc("/{groupId}/{pollId}/vote", controller.HandleVote).Methods("POST")
	pollRouter.HandleFunc("/{groupId}/{pollId}/close", controller.HandleClosePoll).Methods("POST")
	pollRouter.HandleFunc("/{groupId}/{pollId}/stats", controller.HandlePollStats).Methods("GET")
}
