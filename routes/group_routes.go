package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterGroupRoutes registers group registry routes
func RegisterGroupRoutes(r *mux.Router, groupService *services.GroupService, recommendationService *services.RecommendationService) {
	controller := controllers.NewGroupController(groupService, recommendationService)

	groupRouter := r.PathPrefix("/api/groups").Subrouter()
	groupRouter.HandleFunc("", controller.HandleCreateGroup).Methods("POST")
	groupRouter.HandleFunc("", controller.HandleListGroups).Methods("GET")
	groupRouter.HandleFunc("/{groupId}", controller.HandleGetGroup).Methods("GET")
	groupRouter.HandleFunc("/{groupId}/rename", controller.HandleRenameGroup).Methods("POST")
	groupRouter.HandleFunc("/{groupId}/leave", controller.HandleLeaveGroup).Methods("POST")
	groupRouter.HandleFunc("/{groupId}/reset-unread", controller.HandleResetUnread).Methods("POST")
	groupRouter.HandleFunc("/{groupId}/recommendations", controller.HandleRecommendations).Methods("POST")
}
