package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterFriendRoutes registers friend request and friendship routes
func RegisterFriendRoutes(r *mux.Router, friendService *services.FriendService) {
	controller := controllers.NewFriendController(friendService)

	friendRouter := r.PathPrefix("/api/friends").Subrouter()
	friendRouter.HandleFunc("/requests", controller.HandleSendRequest).Methods("POST")
	friendRouter.HandleFunc("/requests/{requestId}/respond", controller.HandleRespond).Methods("POST")
	friendRouter.HandleFunc("/requests/{requestId}/cancel", controller.HandleCancel).Methods("POST")
	friendRouter.HandleFunc("/{userId}", controller.HandleListFriends).Methods("GET")
	friendRouter.HandleFunc("/{userId}/pending", controller.HandleListPending).Methods("GET")
}
