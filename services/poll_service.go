package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"huddle_server/models"
	"huddle_server/pubsub"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DefaultAutoCloseThreshold is the distinct-voter count at which a poll
// closes automatically.
const DefaultAutoCloseThreshold = 3

// PollService owns group decision polls. Every vote is a compare-and-set on
// the poll's version stamp; the auto-close threshold is re-evaluated inside
// the same conditional write, so a poll closes exactly once even under
// concurrent voters.
type PollService struct {
	Dynamo *DynamoService
	Events *pubsub.Hub
	Chat   *GroupChatService

	AutoCloseThreshold int // Zero means DefaultAutoCloseThreshold
}

const voteRetries = 3

func (s *PollService) threshold() int {
	if s.AutoCloseThreshold > 0 {
		return s.AutoCloseThreshold
	}
	return DefaultAutoCloseThreshold
}

// CreatePoll opens a poll in a group. At least two options are required;
// vote sets start empty.
func (s *PollService) CreatePoll(ctx context.Context, groupID string, creator models.PollCreator, question string, options []models.PollOption) (*models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len(options) < 2 {
		return nil, ErrInsufficientOptions
	}

	normalized := make([]models.PollOption, len(options))
	for i, opt := range options {
		if opt.ID == "" {
			opt.ID = fmt.Sprintf("option_%d", i)
		}
		opt.Votes = []string{}
		normalized[i] = opt
	}

	poll := models.Poll{
		GroupID:    groupID,
		PollID:     uuid.New().String(),
		Question:   question,
		Options:    normalized,
		TotalVotes: 0,
		Voters:     []string{},
		IsActive:   true,
		CreatedBy:  creator,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}

	if err := s.Dynamo.PutItem(ctx, models.GroupPollsTable, poll); err != nil {
		return nil, err
	}

	if s.Chat != nil {
		text := fmt.Sprintf("%s created a poll: %q with %d options", creator.Name, question, len(normalized))
		if _, err := s.Chat.PostSystemMessage(ctx, groupID, text, nil); err != nil {
			log.Printf("❌ Failed to post poll creation message for group %s: %v", groupID, err)
		}
	}

	log.Printf("✅ Poll %s created in group %s", poll.PollID, groupID)
	s.publish(poll, pubsub.KindCreated)
	return &poll, nil
}

// GetPoll retrieves a poll by group and ID
func (s *PollService) GetPoll(ctx context.Context, groupID, pollID string) (*models.Poll, error) {
	item, err := s.Dynamo.GetItem(ctx, models.GroupPollsTable, pollKey(groupID, pollID))
	if err != nil {
		return nil, err
	}

	var poll models.Poll
	if err := attributevalue.UnmarshalMap(item, &poll); err != nil {
		return nil, fmt.Errorf("failed to unmarshal poll: %w", err)
	}
	return &poll, nil
}

// ListActivePolls returns the group's open polls.
func (s *PollService) ListActivePolls(ctx context.Context, groupID string) ([]models.Poll, error) {
	items, err := s.Dynamo.QueryItemsWithFilter(ctx, models.GroupPollsTable,
		"groupId = :groupId",
		"isActive = :active",
		map[string]types.AttributeValue{
			":groupId": &types.AttributeValueMemberS{Value: groupID},
			":active":  &types.AttributeValueMemberBOOL{Value: true},
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	var polls []models.Poll
	if err := attributevalue.UnmarshalListOfMaps(items, &polls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal polls: %w", err)
	}
	return polls, nil
}

// Vote records voterID's vote for optionID. A voter appears in at most one
// option's vote set; totalVotes is recomputed in the same write, and when
// the distinct-voter threshold is crossed the poll is closed in that write
// too.
func (s *PollService) Vote(ctx context.Context, groupID, pollID, voterID, voterName, optionID string) (*models.Poll, error) {
	for attempt := 0; attempt < voteRetries; attempt++ {
		poll, err := s.GetPoll(ctx, groupID, pollID)
		if err != nil {
			return nil, err
		}
		if !poll.IsActive {
			return nil, ErrPollClosed
		}
		if poll.HasVoted(voterID) {
			return nil, ErrAlreadyVoted
		}

		optionIndex := -1
		for i, opt := range poll.Options {
			if opt.ID == optionID {
				optionIndex = i
				break
			}
		}
		if optionIndex < 0 {
			return nil, ErrUnknownOption
		}

		updated := applyVote(*poll, optionIndex, voterID)
		autoClose := len(updated.Voters) >= s.threshold()

		optionsAttr, err := attributevalue.Marshal(updated.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal options: %w", err)
		}
		votersAttr, err := attributevalue.Marshal(updated.Voters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal voters: %w", err)
		}

		updateExpression := "SET options = :options, totalVotes = :totalVotes, voters = :voters, version = :newVersion"
		values := map[string]types.AttributeValue{
			":options":    optionsAttr,
			":totalVotes": &types.AttributeValueMemberN{Value: strconv.Itoa(updated.TotalVotes)},
			":voters":     votersAttr,
			":newVersion": &types.AttributeValueMemberN{Value: strconv.FormatInt(poll.Version+1, 10)},
			":oldVersion": &types.AttributeValueMemberN{Value: strconv.FormatInt(poll.Version, 10)},
			":active":     &types.AttributeValueMemberBOOL{Value: true},
		}
		if autoClose {
			updated.IsActive = false
			updated.ClosedAt = time.Now().UTC().Format(time.RFC3339)
			updated.CloseReason = models.CloseReasonAuto
			updateExpression += ", isActive = :inactive, closedAt = :closedAt, closeReason = :closeReason"
			values[":inactive"] = &types.AttributeValueMemberBOOL{Value: false}
			values[":closedAt"] = &types.AttributeValueMemberS{Value: updated.ClosedAt}
			values[":closeReason"] = &types.AttributeValueMemberS{Value: models.CloseReasonAuto}
		}

		_, err = s.Dynamo.UpdateItemWithCondition(ctx, models.GroupPollsTable,
			updateExpression,
			pollKey(groupID, pollID),
			values,
			nil,
			"version = :oldVersion AND isActive = :active",
		)
		if err != nil {
			if IsConditionFailure(err) {
				continue // Concurrent vote or close; re-read and re-evaluate
			}
			return nil, err
		}

		updated.Version = poll.Version + 1
		if s.Chat != nil {
			text := fmt.Sprintf("%s voted %q on the poll", voterName, updated.Options[optionIndex].Text)
			if _, err := s.Chat.PostSystemMessage(ctx, groupID, text, nil); err != nil {
				log.Printf("❌ Failed to post vote message for poll %s: %v", pollID, err)
			}
		}
		if autoClose {
			// The CAS above closed the poll exactly once, so only this
			// caller announces the outcome.
			s.announceOutcome(ctx, updated)
		}

		s.publish(updated, pubsub.KindUpdated)
		return &updated, nil
	}

	return nil, ErrWriteConflict
}

// Close ends a poll manually. Only the creator may close; the terminal
// update and the result announcement commit in one transaction.
func (s *PollService) Close(ctx context.Context, groupID, pollID, closerID string) (*models.Poll, error) {
	poll, err := s.GetPoll(ctx, groupID, pollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive {
		return nil, ErrPollClosed
	}
	if poll.CreatedBy.ID != closerID {
		return nil, ErrNotAuthorized
	}

	closed := *poll
	closed.IsActive = false
	closed.ClosedAt = time.Now().UTC().Format(time.RFC3339)
	closed.CloseReason = models.CloseReasonManual
	closed.Version = poll.Version + 1

	resultText, result := pollOutcome(closed)
	message := s.Chat.NewSystemMessage(groupID, resultText, result)
	messageItem, err := attributevalue.MarshalMap(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result message: %w", err)
	}

	err = s.Dynamo.TransactWrite(ctx, []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName:        aws.String(models.GroupPollsTable),
				Key:              pollKey(groupID, pollID),
				UpdateExpression: aws.String("SET isActive = :inactive, closedAt = :closedAt, closeReason = :closeReason, version = :newVersion"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":inactive":    &types.AttributeValueMemberBOOL{Value: false},
					":closedAt":    &types.AttributeValueMemberS{Value: closed.ClosedAt},
					":closeReason": &types.AttributeValueMemberS{Value: models.CloseReasonManual},
					":newVersion":  &types.AttributeValueMemberN{Value: strconv.FormatInt(closed.Version, 10)},
					":oldVersion":  &types.AttributeValueMemberN{Value: strconv.FormatInt(poll.Version, 10)},
					":active":      &types.AttributeValueMemberBOOL{Value: true},
				},
				ConditionExpression: aws.String("version = :oldVersion AND isActive = :active"),
			},
		},
		{
			Put: &types.Put{
				TableName:           aws.String(models.GroupMessagesTable),
				Item:                messageItem,
				ConditionExpression: aws.String("attribute_not_exists(createdAt)"),
			},
		},
	})
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrPollClosed
		}
		return nil, err
	}

	log.Printf("✅ Poll %s closed manually by %s", pollID, closerID)
	s.Chat.PublishAppended(ctx, message)
	s.publish(closed, pubsub.KindUpdated)
	return &closed, nil
}

// ListOptionsWithStats returns the poll's options with vote counts, vote
// share and whether userID voted for each.
func (s *PollService) ListOptionsWithStats(ctx context.Context, groupID, pollID, userID string) ([]models.OptionStats, error) {
	poll, err := s.GetPoll(ctx, groupID, pollID)
	if err != nil {
		return nil, err
	}
	return optionStats(*poll, userID), nil
}

// announceOutcome posts the result message for an auto-closed poll.
func (s *PollService) announceOutcome(ctx context.Context, poll models.Poll) {
	if s.Chat == nil {
		return
	}
	resultText, result := pollOutcome(poll)
	if _, err := s.Chat.PostSystemMessage(ctx, poll.GroupID, resultText, result); err != nil {
		log.Printf("❌ Failed to post result message for poll %s: %v", poll.PollID, err)
	}
}

// applyVote returns a copy of poll with voterID added to the indexed
// option. totalVotes is recomputed from the vote sets so the two can never
// drift.
func applyVote(poll models.Poll, optionIndex int, voterID string) models.Poll {
	options := make([]models.PollOption, len(poll.Options))
	total := 0
	for i, opt := range poll.Options {
		votes := make([]string, len(opt.Votes), len(opt.Votes)+1)
		copy(votes, opt.Votes)
		if i == optionIndex {
			votes = append(votes, voterID)
		}
		opt.Votes = votes
		options[i] = opt
		total += len(votes)
	}

	voters := make([]string, len(poll.Voters), len(poll.Voters)+1)
	copy(voters, poll.Voters)
	voters = append(voters, voterID)

	poll.Options = options
	poll.TotalVotes = total
	poll.Voters = voters
	return poll
}

// tallyOutcome returns the option(s) holding the maximum vote count.
func tallyOutcome(options []models.PollOption) ([]models.PollOption, int) {
	maxVotes := 0
	for _, opt := range options {
		if len(opt.Votes) > maxVotes {
			maxVotes = len(opt.Votes)
		}
	}

	var winners []models.PollOption
	for _, opt := range options {
		if len(opt.Votes) == maxVotes {
			winners = append(winners, opt)
		}
	}
	return winners, maxVotes
}

// pollOutcome builds the result message and payload for a closed poll. A
// single option at the maximum wins; two or more tied at the maximum are
// reported as a tie with every tied option listed, no tie-break applied.
func pollOutcome(poll models.Poll) (string, *models.PollResult) {
	winners, maxVotes := tallyOutcome(poll.Options)

	result := &models.PollResult{
		PollID:     poll.PollID,
		Question:   poll.Question,
		TotalVotes: poll.TotalVotes,
	}

	if len(winners) > 1 {
		result.IsTie = true
		result.TiedOptions = winners

		quoted := make([]string, len(winners))
		for i, opt := range winners {
			quoted[i] = fmt.Sprintf("%q", opt.Text)
		}
		text := fmt.Sprintf("🤝 Poll %q ended in a tie! Tied options: %s (%d votes each)",
			poll.Question, strings.Join(quoted, ", "), maxVotes)
		return text, result
	}

	winner := winners[0]
	result.Winner = &winner
	result.Venue = winner.Venue

	text := fmt.Sprintf("🎉 Poll Results: %q - Winner: %q (%d votes)", poll.Question, winner.Text, maxVotes)
	if winner.Venue != nil {
		text += fmt.Sprintf(" 📍 Let's meet at %s!", winner.Venue.Name)
		if winner.Venue.Address != "" {
			text += fmt.Sprintf(" (%s)", winner.Venue.Address)
		}
	} else if winner.ID == "other" {
		text += " 💭 Time to suggest other options!"
	}
	return text, result
}

// optionStats computes the per-option view for a requesting user.
// Percentage is the option's share of the total vote, 0 when nobody has
// voted.
func optionStats(poll models.Poll, userID string) []models.OptionStats {
	stats := make([]models.OptionStats, len(poll.Options))
	for i, opt := range poll.Options {
		stat := models.OptionStats{
			PollOption: opt,
			VoteCount:  len(opt.Votes),
		}
		if poll.TotalVotes > 0 {
			stat.Percentage = float64(len(opt.Votes)) / float64(poll.TotalVotes) * 100
		}
		for _, v := range opt.Votes {
			if v == userID {
				stat.HasVoted = true
				break
			}
		}
		stats[i] = stat
	}
	return stats
}

func pollKey(groupID, pollID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
		"pollId":  &types.AttributeValueMemberS{Value: pollID},
	}
}

func (s *PollService) publish(poll models.Poll, kind string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(pubsub.Event{
		Topic:   pubsub.PollsTopic(poll.GroupID),
		Kind:    kind,
		Payload: poll,
	})
}
