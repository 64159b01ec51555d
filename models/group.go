package models

// GroupMember carries the denormalized profile fields shown next to a
// member inside a group. Kept in lockstep with Group.MemberIDs.
type GroupMember struct {
	ID       string `dynamodbav:"id" json:"id"`
	Name     string `dynamodbav:"name" json:"name"`
	Avatar   string `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Location string `dynamodbav:"location,omitempty" json:"location,omitempty"`
}

// Group represents a coordination group stored in DynamoDB
type Group struct {
	GroupID           string        `dynamodbav:"groupId" json:"groupId"` // ✅ Partition Key
	Name              string        `dynamodbav:"name" json:"name"`
	MemberIDs         []string      `dynamodbav:"memberIds" json:"memberIds"`
	Members           []GroupMember `dynamodbav:"members" json:"members"`
	CreatedBy         string        `dynamodbav:"createdBy" json:"createdBy"`
	CreatedAt         string        `dynamodbav:"createdAt" json:"createdAt"`
	LastMessage       string        `dynamodbav:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastSender        string        `dynamodbav:"lastSender,omitempty" json:"lastSender,omitempty"`
	LastMessageTime   string        `dynamodbav:"lastMessageTime,omitempty" json:"lastMessageTime,omitempty"`
	UnreadCount       int           `dynamodbav:"unreadCount" json:"unreadCount"`
	AIRecommendations string        `dynamodbav:"aiRecommendations,omitempty" json:"aiRecommendations,omitempty"`
	Version           int64         `dynamodbav:"version" json:"-"` // Optimistic lock stamp for membership writes
}

// HasMember reports whether userID is currently in the group.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Table Name for DynamoDB
const GroupsTable = "Groups"
