package models

import "strings"

// FriendRequest represents a directed friend request in DynamoDB.
// Exactly one item exists per unordered user pair: the partition key is the
// sorted pair of user IDs, so a conditional put is enough to reject a
// duplicate request in either direction.
type FriendRequest struct {
	PairID         string `dynamodbav:"pairId" json:"pairId"`       // ✅ Partition Key ("lowId#highId")
	RequestID      string `dynamodbav:"requestId" json:"requestId"` // ✅ Unique request ID (UUID-based)
	SenderID       string `dynamodbav:"senderId" json:"senderId"`
	SenderName     string `dynamodbav:"senderName,omitempty" json:"senderName,omitempty"`
	SenderAvatar   string `dynamodbav:"senderAvatar,omitempty" json:"senderAvatar,omitempty"`
	ReceiverID     string `dynamodbav:"receiverId" json:"receiverId"`
	ReceiverName   string `dynamodbav:"receiverName,omitempty" json:"receiverName,omitempty"`
	ReceiverAvatar string `dynamodbav:"receiverAvatar,omitempty" json:"receiverAvatar,omitempty"`
	Status         string `dynamodbav:"status" json:"status"` // "pending", "accepted", "declined"
	Message        string `dynamodbav:"message,omitempty" json:"message,omitempty"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Friend is the derived symmetric view of one accepted request.
type Friend struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Since  string `json:"since"`
}

// PairID builds the canonical partition key for two user IDs regardless of
// who is sending.
func PairID(a, b string) string {
	if strings.Compare(a, b) < 0 {
		return a + "#" + b
	}
	return b + "#" + a
}

// Table Name for DynamoDB
const FriendRequestsTable = "FriendRequests"

// GSI Index Names
const RequestSenderIndex = "senderId-status-index"     // GSI for outgoing requests / accepted edges
const RequestReceiverIndex = "receiverId-status-index" // GSI for incoming requests / accepted edges
const RequestIDIndex = "requestId-index"               // GSI for lookups by request ID
