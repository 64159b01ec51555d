package models

// Venue carries the optional venue payload attached to a poll option.
type Venue struct {
	Name       string  `dynamodbav:"name" json:"name"`
	Address    string  `dynamodbav:"address,omitempty" json:"address,omitempty"`
	Rating     float64 `dynamodbav:"rating,omitempty" json:"rating,omitempty"`
	PriceLevel string  `dynamodbav:"priceLevel,omitempty" json:"priceLevel,omitempty"`
	Cuisine    string  `dynamodbav:"cuisine,omitempty" json:"cuisine,omitempty"`
}

// PollOption is one votable choice. Votes holds the IDs of the users who
// picked this option; a user appears in at most one option per poll.
type PollOption struct {
	ID    string   `dynamodbav:"id" json:"id"`
	Text  string   `dynamodbav:"text" json:"text"`
	Votes []string `dynamodbav:"votes" json:"votes"`
	Venue *Venue   `dynamodbav:"venue,omitempty" json:"venue,omitempty"`
}

// PollCreator identifies who opened the poll.
type PollCreator struct {
	ID     string `dynamodbav:"id" json:"id"`
	Name   string `dynamodbav:"name" json:"name"`
	Avatar string `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
}

// Poll represents a group decision stored in DynamoDB. Open → Closed is the
// only transition; once IsActive is false the poll never mutates again.
type Poll struct {
	GroupID     string       `dynamodbav:"groupId" json:"groupId"` // ✅ Partition Key (Group Identifier)
	PollID      string       `dynamodbav:"pollId" json:"pollId"`   // ✅ Sort Key (UUID-based)
	Question    string       `dynamodbav:"question" json:"question"`
	Options     []PollOption `dynamodbav:"options" json:"options"`
	TotalVotes  int          `dynamodbav:"totalVotes" json:"totalVotes"`
	Voters      []string     `dynamodbav:"voters" json:"voters"` // Distinct voters across all options
	IsActive    bool         `dynamodbav:"isActive" json:"isActive"`
	CreatedBy   PollCreator  `dynamodbav:"createdBy" json:"createdBy"`
	CreatedAt   string       `dynamodbav:"createdAt" json:"createdAt"`
	ClosedAt    string       `dynamodbav:"closedAt,omitempty" json:"closedAt,omitempty"`
	CloseReason string       `dynamodbav:"closeReason,omitempty" json:"closeReason,omitempty"` // "manual" or "auto"
	Version     int64        `dynamodbav:"version" json:"-"`                                   // Optimistic lock stamp for vote/close writes
}

// HasVoted reports whether userID already voted on any option.
func (p *Poll) HasVoted(userID string) bool {
	for _, v := range p.Voters {
		if v == userID {
			return true
		}
	}
	return false
}

// OptionStats is the per-option view returned to callers, with vote counts
// and the share of the total vote.
type OptionStats struct {
	PollOption
	VoteCount  int     `json:"voteCount"`
	Percentage float64 `json:"percentage"`
	HasVoted   bool    `json:"hasVoted"`
}

// Table Name for DynamoDB
const GroupPollsTable = "GroupPolls"
