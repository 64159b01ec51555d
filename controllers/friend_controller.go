package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"huddle_server/services"

	"github.com/gorilla/mux"
)

// FriendController handles friend request and friendship endpoints
type FriendController struct {
	FriendService *services.FriendService
}

// NewFriendController creates a new instance of FriendController
func NewFriendController(friendService *services.FriendService) *FriendController {
	return &FriendController{FriendService: friendService}
}

// HandleSendRequest creates a pending friend request
func (c *FriendController) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	var request struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Message    string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.SenderID == "" || request.ReceiverID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: senderId or receiverId"})
		return
	}

	created, err := c.FriendService.SendRequest(r.Context(), request.SenderID, request.ReceiverID, request.Message)
	if err != nil {
		log.Printf("❌ Failed to send friend request: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// HandleRespond accepts or declines a pending request
func (c *FriendController) HandleRespond(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	var request struct {
		UserID   string `json:"userId"`
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.UserID == "" || (request.Decision != "accept" && request.Decision != "decline") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing userId or decision must be accept or decline"})
		return
	}

	updated, err := c.FriendService.Respond(r.Context(), requestID, request.UserID, request.Decision == "accept")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleCancel withdraws a pending request
func (c *FriendController) HandleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	if err := c.FriendService.Cancel(r.Context(), requestID, request.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Friend request cancelled"})
}

// HandleListFriends returns the user's accepted friendships
func (c *FriendController) HandleListFriends(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	friends, err := c.FriendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}

// HandleListPending returns pending requests filtered by direction
func (c *FriendController) HandleListPending(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	direction := r.URL.Query().Get("direction")

	requests, err := c.FriendService.ListPending(r.Context(), userID, direction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}
