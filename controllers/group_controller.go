package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"huddle_server/models"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// GroupController handles group registry endpoints
type GroupController struct {
	GroupService          *services.GroupService
	RecommendationService *services.RecommendationService
}

// NewGroupController creates a new instance of GroupController
func NewGroupController(groupService *services.GroupService, recommendationService *services.RecommendationService) *GroupController {
	return &GroupController{GroupService: groupService, RecommendationService: recommendationService}
}

// HandleCreateGroup creates a group from a selected friend set
func (c *GroupController) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var request struct {
		CreatorID string               `json:"creatorId"`
		Name      string               `json:"name"`
		Members   []models.GroupMember `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.CreatorID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: creatorId"})
		return
	}

	group, err := c.GroupService.CreateGroup(r.Context(), request.CreatorID, request.Name, request.Members)
	if err != nil {
		log.Printf("❌ Failed to create group: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleGetGroup fetches a single group
func (c *GroupController) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	group, err := c.GroupService.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleListGroups returns the user's groups ordered by recent activity
func (c *GroupController) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	groups, err := c.GroupService.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// HandleRenameGroup changes the group name
func (c *GroupController) HandleRenameGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: userId or name"})
		return
	}

	group, err := c.GroupService.Rename(r.Context(), groupID, request.UserID, request.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleLeaveGroup removes the caller from the group
func (c *GroupController) HandleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	group, err := c.GroupService.Leave(r.Context(), groupID, request.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleResetUnread zeroes the unread counter when a chat is opened
func (c *GroupController) HandleResetUnread(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	if err := c.GroupService.ResetUnread(r.Context(), groupID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HandleRecommendations fetches a meetup recommendation for the group's
// members and attaches it to the group record.
func (c *GroupController) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	group, err := c.GroupService.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}

	members := make([]services.RecommendationMember, 0, len(group.Members))
	for _, m := range group.Members {
		members = append(members, services.RecommendationMember{Name: m.Name, Location: m.Location})
	}

	recommendation, err := c.RecommendationService.FindGroupMeetup(r.Context(), members, request.Purpose)
	if err != nil {
		log.Printf("❌ Recommendation lookup failed for group %s: %v", groupID, err)
		writeError(w, err)
		return
	}

	updated, err := c.GroupService.AttachRecommendations(r.Context(), groupID, recommendation)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recommendation,
		"group":           updated,
	})
}
