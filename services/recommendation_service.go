package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// RecommendationService calls the external AI recommendation API for group
// meetup suggestions. Responses are returned verbatim; the engine never
// edits recommendation text.
type RecommendationService struct {
	BaseURL    string
	HTTPClient *http.Client
}

// RecommendationMember is the member payload sent to the recommendation API.
type RecommendationMember struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// NewRecommendationService builds a client from RECOMMENDATION_API_URL.
func NewRecommendationService() *RecommendationService {
	return &RecommendationService{
		BaseURL:    os.Getenv("RECOMMENDATION_API_URL"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FindGroupMeetup asks the recommendation API for a meetup suggestion for
// the given members and purpose. It returns the raw recommendation text.
func (rs *RecommendationService) FindGroupMeetup(ctx context.Context, members []RecommendationMember, purpose string) (string, error) {
	if rs.BaseURL == "" {
		return "", fmt.Errorf("%w: recommendation API not configured", ErrUnavailable)
	}

	payload := map[string]interface{}{
		"group_members": members,
		"purpose":       purpose,
		"group_size":    len(members),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recommendation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.BaseURL+"/api/ai/group-meetup", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rs.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: recommendation API returned %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed struct {
		Results struct {
			Recommendation string `json:"recommendation"`
			Summary        string `json:"summary"`
			Raw            string `json:"raw"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode recommendation response: %w", err)
	}

	for _, candidate := range []string{parsed.Results.Recommendation, parsed.Results.Summary, parsed.Results.Raw} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: empty recommendation response", ErrUnavailable)
}
