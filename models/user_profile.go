package models

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID      string   `dynamodbav:"userId" json:"userId"`
	DisplayName string   `dynamodbav:"displayName" json:"displayName"`
	AvatarURL   string   `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Email       string   `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Interests   []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Location    string   `dynamodbav:"location,omitempty" json:"location,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
