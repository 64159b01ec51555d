package models

// PollResult is the structured payload attached to the system message that
// announces a poll outcome.
type PollResult struct {
	PollID      string       `dynamodbav:"pollId" json:"pollId"`
	Question    string       `dynamodbav:"question" json:"question"`
	Winner      *PollOption  `dynamodbav:"winner,omitempty" json:"winner,omitempty"`
	IsTie       bool         `dynamodbav:"isTie" json:"isTie"`
	TiedOptions []PollOption `dynamodbav:"tiedOptions,omitempty" json:"tiedOptions,omitempty"`
	TotalVotes  int          `dynamodbav:"totalVotes" json:"totalVotes"`
	Venue       *Venue       `dynamodbav:"venue,omitempty" json:"venue,omitempty"`
}

// GroupMessage represents a group chat message stored in DynamoDB.
// Messages are immutable and append-only per group; CreatedAt is assigned by
// the server and is strictly increasing within a group.
type GroupMessage struct {
	GroupID         string      `dynamodbav:"groupId" json:"groupId"`     // ✅ Partition Key (Group Identifier)
	CreatedAt       string      `dynamodbav:"createdAt" json:"createdAt"` // ✅ Sort Key (Timestamp)
	MessageID       string      `dynamodbav:"messageId" json:"messageId"` // ✅ Unique message ID (UUID-based)
	UserID          string      `dynamodbav:"userId" json:"userId"`       // Sender, or "system"
	UserName        string      `dynamodbav:"userName,omitempty" json:"userName,omitempty"`
	UserAvatar      string      `dynamodbav:"userAvatar,omitempty" json:"userAvatar,omitempty"`
	Text            string      `dynamodbav:"text" json:"text"`
	IsSystemMessage bool        `dynamodbav:"isSystemMessage" json:"isSystemMessage"`
	PollResult      *PollResult `dynamodbav:"pollResult,omitempty" json:"pollResult,omitempty"`
}

// Table Name for DynamoDB
const GroupMessagesTable = "GroupMessages"
