package routes

import (
	"huddle_server/controllers"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// RegisterGroupChatRoutes registers group chat and typing presence routes
func RegisterGroupChatRoutes(r *mux.Router, chatService *services.GroupChatService, presenceService *services.PresenceService) {
	controller := controllers.NewGroupChatController(chatService, presenceService)

	chatRouter := r.PathPrefix("/api/group-chat").Subrouter()
	chatRouter.HandleFunc("/{groupId}/messages", controller.HandleCreateGroupMessage).Methods("POST")
	chatRouter.HandleFunc("/{groupId}/messages", controller.HandleGetGroupMessages).Methods("GET")
	chatRouter.HandleFunc("/{groupId}/typing", controller.HandleSetTyping).Methods("POST")
	chatRouter.HandleFunc("/{groupId}/typing", controller.HandleGetTyping).Methods("GET")
}
