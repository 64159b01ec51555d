package models

// TypingPresence is an ephemeral record keyed by (groupId, userId). It lives
// in Redis, not DynamoDB. A row is valid only while now − Timestamp <
// TypingWindowMillis; the store never expires rows on its own, so readers
// must apply the window on every read. The only eager cleanup is the delete
// issued when a user stops typing.
type TypingPresence struct {
	GroupID   string `json:"groupId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// TypingWindowMillis is how long a typing record stays valid.
const TypingWindowMillis = 3000

// TypingKey returns the Redis hash key holding a group's typing records.
func TypingKey(groupID string) string {
	return "typing:" + groupID
}
