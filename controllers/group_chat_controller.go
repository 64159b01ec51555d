package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"huddle_server/models"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// GroupChatController handles message and typing presence endpoints
type GroupChatController struct {
	GroupChatService *services.GroupChatService
	PresenceService  *services.PresenceService
}

// NewGroupChatController initializes the group chat controller
func NewGroupChatController(chatService *services.GroupChatService, presenceService *services.PresenceService) *GroupChatController {
	return &GroupChatController{GroupChatService: chatService, PresenceService: presenceService}
}

// HandleCreateGroupMessage - Handles sending a new group message
func (c *GroupChatController) HandleCreateGroupMessage(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		UserID     string `json:"userId"`
		UserName   string `json:"userName"`
		UserAvatar string `json:"userAvatar,omitempty"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	author := models.GroupMember{ID: request.UserID, Name: request.UserName, Avatar: request.UserAvatar}
	message, err := c.GroupChatService.PostMessage(r.Context(), groupID, author, request.Text)
	if err != nil {
		log.Printf("❌ Failed to send group message: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// HandleGetGroupMessages returns the group's log in ascending order
func (c *GroupChatController) HandleGetGroupMessages(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	messages, err := c.GroupChatService.ListMessages(r.Context(), groupID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// HandleSetTyping records or clears a typing indicator
func (c *GroupChatController) HandleSetTyping(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		IsTyping bool   `json:"isTyping"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	if err := c.PresenceService.SetTyping(r.Context(), groupID, request.UserID, request.UserName, request.IsTyping); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HandleGetTyping returns the group's currently typing members
func (c *GroupChatController) HandleGetTyping(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	typing, err := c.PresenceService.ListTyping(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"typing": typing})
}
