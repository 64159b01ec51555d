package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"huddle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserProfileService is the identity directory: the read-mostly source of
// truth for display names, avatars, interests and locations. Profile
// identity itself comes from the external identity provider.
type UserProfileService struct {
	Dynamo *DynamoService
}

// AddUserProfile adds a new user profile to DynamoDB
func (ups *UserProfileService) AddUserProfile(ctx context.Context, profile models.UserProfile) (*models.UserProfile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("%w: userId", ErrEmptyName)
	}
	if strings.TrimSpace(profile.DisplayName) == "" {
		return nil, fmt.Errorf("%w: displayName", ErrEmptyName)
	}
	if err := ups.Dynamo.PutItem(ctx, models.UserProfilesTable, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserProfile retrieves a user profile by ID
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := ups.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// UpdateUserProfile updates an existing user profile
func (ups *UserProfileService) UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) (*models.UserProfile, error) {
	if len(updates) == 0 {
		return ups.GetUserProfile(ctx, userID)
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	updateExpression := "SET"
	expressionAttributeValues := make(map[string]types.AttributeValue)
	expressionAttributeNames := make(map[string]string)

	for k, v := range updates {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal update field '%s': %w", k, err)
		}
		placeholder := ":" + k
		attributeName := "#" + k
		updateExpression += " " + attributeName + " = " + placeholder + ","
		expressionAttributeValues[placeholder] = av
		expressionAttributeNames[attributeName] = k
	}
	updateExpression = updateExpression[:len(updateExpression)-1]

	updatedItem, err := ups.Dynamo.UpdateItemWithCondition(ctx, models.UserProfilesTable, updateExpression, key,
		expressionAttributeValues, expressionAttributeNames, "attribute_exists(userId)")
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var updatedProfile models.UserProfile
	if err := attributevalue.UnmarshalMap(updatedItem, &updatedProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated profile: %w", err)
	}
	return &updatedProfile, nil
}

// SearchUsers returns profiles other than the requester's, filtered by a
// free-text query against display name, interests, location and email.
// Drives the friend discovery feed.
func (ups *UserProfileService) SearchUsers(ctx context.Context, excludeUserID, query string) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	err := ups.Dynamo.ScanWithFilter(ctx, models.UserProfilesTable,
		"#userId <> :userId",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: excludeUserID},
		},
		map[string]string{"#userId": "userId"},
		&profiles,
	)
	if err != nil {
		log.Printf("❌ Error scanning user profiles: %v", err)
		return nil, err
	}

	matched := filterProfiles(profiles, query)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DisplayName < matched[j].DisplayName
	})
	return matched, nil
}

func filterProfiles(profiles []models.UserProfile, query string) []models.UserProfile {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return profiles
	}

	var matched []models.UserProfile
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.DisplayName), query) ||
			strings.Contains(strings.ToLower(p.Location), query) ||
			strings.Contains(strings.ToLower(p.Email), query) {
			matched = append(matched, p)
			continue
		}
		for _, interest := range p.Interests {
			if strings.Contains(strings.ToLower(interest), query) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}
