package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"huddle_server/models"
	"huddle_server/services"

	"github.com/gorilla/mux"
)

// PollController handles poll endpoints
type PollController struct {
	PollService *services.PollService
}

// NewPollController creates a new instance of PollController
func NewPollController(pollService *services.PollService) *PollController {
	return &PollController{PollService: pollService}
}

// HandleCreatePoll opens a poll in a group
func (c *PollController) HandleCreatePoll(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]
	var request struct {
		Creator  models.PollCreator  `json:"creator"`
		Question string              `json:"question"`
		Options  []models.PollOption `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.Creator.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: creator.id"})
		return
	}

	poll, err := c.PollService.CreatePoll(r.Context(), groupID, request.Creator, request.Question, request.Options)
	if err != nil {
		log.Printf("❌ Failed to create poll: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// HandleListActivePolls returns the group's open polls
func (c *PollController) HandleListActivePolls(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["groupId"]

	polls, err := c.PollService.ListActivePolls(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// HandleVote records a vote on a poll option
func (c *PollController) HandleVote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var request struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		OptionID string `json:"optionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if request.UserID == "" || request.OptionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields: userId or optionId"})
		return
	}

	poll, err := c.PollService.Vote(r.Context(), vars["groupId"], vars["pollId"], request.UserID, request.UserName, request.OptionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// HandleClosePoll ends a poll manually
func (c *PollController) HandleClosePoll(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required field: userId"})
		return
	}

	poll, err := c.PollService.Close(r.Context(), vars["groupId"], vars["pollId"], request.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// HandlePollStats returns per-option vote counts and shares for a user
func (c *PollController) HandlePollStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := r.URL.Query().Get("userId")

	stats, err := c.PollService.ListOptionsWithStats(r.Context(), vars["groupId"], vars["pollId"], userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"options": stats})
}
