package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"huddle_server/models"
	"huddle_server/pubsub"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// GroupChatService owns the per-group message log. Timestamps are assigned
// server-side and are strictly increasing within a group, so subscribers
// observe a single consistent order regardless of client clocks.
type GroupChatService struct {
	Dynamo *DynamoService
	Events *pubsub.Hub
	Groups *GroupService

	mu        sync.Mutex
	lastStamp map[string]time.Time
}

const appendRetries = 3

// nextTimestamp returns a server-assigned stamp strictly after every stamp
// previously issued for the group, in the fixed-width layout whose string
// order matches time order.
func (cs *GroupChatService) nextTimestamp(groupID string) string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.lastStamp == nil {
		cs.lastStamp = make(map[string]time.Time)
	}

	now := time.Now().UTC()
	if last, ok := cs.lastStamp[groupID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	cs.lastStamp[groupID] = now
	return formatStamp(now)
}

// PostMessage appends a member's message to the group log, refreshes the
// group summary and notifies subscribers.
func (cs *GroupChatService) PostMessage(ctx context.Context, groupID string, author models.GroupMember, text string) (*models.GroupMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	group, err := cs.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(author.ID) {
		return nil, ErrNotAMember
	}

	message := models.GroupMessage{
		GroupID:    groupID,
		MessageID:  uuid.New().String(),
		UserID:     author.ID,
		UserName:   author.Name,
		UserAvatar: author.Avatar,
		Text:       text,
	}
	if err := cs.append(ctx, &message); err != nil {
		return nil, err
	}

	if err := cs.Groups.UpdateSummary(ctx, groupID, text, author.Name, message.CreatedAt); err != nil {
		log.Printf("❌ Failed to update summary for group %s: %v", groupID, err)
	}
	cs.publish(message)
	return &message, nil
}

// PostSystemMessage appends a message authored by the engine itself. System
// messages narrate state changes (rename, leave, poll results); they skip
// the membership check and carry an optional poll result payload.
func (cs *GroupChatService) PostSystemMessage(ctx context.Context, groupID, text string, pollResult *models.PollResult) (*models.GroupMessage, error) {
	message := cs.NewSystemMessage(groupID, text, pollResult)
	if err := cs.append(ctx, &message); err != nil {
		return nil, err
	}

	if err := cs.Groups.UpdateSummary(ctx, groupID, text, models.SystemSenderName, message.CreatedAt); err != nil {
		log.Printf("❌ Failed to update summary for group %s: %v", groupID, err)
	}
	cs.publish(message)
	return &message, nil
}

// NewSystemMessage builds a system message with a fresh stamp without
// storing it. The poll engine embeds these in its closing transaction.
func (cs *GroupChatService) NewSystemMessage(groupID, text string, pollResult *models.PollResult) models.GroupMessage {
	return models.GroupMessage{
		GroupID:         groupID,
		CreatedAt:       cs.nextTimestamp(groupID),
		MessageID:       uuid.New().String(),
		UserID:          models.SystemSenderID,
		UserName:        models.SystemSenderName,
		Text:            text,
		IsSystemMessage: true,
		PollResult:      pollResult,
	}
}

// append stores the message, assigning a stamp when one isn't set yet. The
// conditional put guards the (groupId, createdAt) key; on the rare
// collision the stamp is re-issued.
func (cs *GroupChatService) append(ctx context.Context, message *models.GroupMessage) error {
	for attempt := 0; attempt < appendRetries; attempt++ {
		if message.CreatedAt == "" {
			message.CreatedAt = cs.nextTimestamp(message.GroupID)
		}

		err := cs.Dynamo.PutItemWithCondition(ctx, models.GroupMessagesTable, *message,
			"attribute_not_exists(createdAt)", nil, nil)
		if err == nil {
			return nil
		}
		if !IsConditionFailure(err) {
			return err
		}
		message.CreatedAt = ""
	}
	return ErrWriteConflict
}

// ListMessages returns the group's log in ascending timestamp order. No
// membership cutoff applies: a member who left and re-joined sees the full
// history.
func (cs *GroupChatService) ListMessages(ctx context.Context, groupID string, limit int) ([]models.GroupMessage, error) {
	items, err := cs.Dynamo.QueryItemsWithOptions(ctx, models.GroupMessagesTable,
		"groupId = :groupId",
		map[string]types.AttributeValue{
			":groupId": &types.AttributeValueMemberS{Value: groupID},
		},
		nil,
		int32(limit),
		true,
	)
	if err != nil {
		return nil, err
	}

	var messages []models.GroupMessage
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group messages: %w", err)
	}
	return messages, nil
}

// PublishAppended notifies subscribers of a message that was committed
// outside this service (e.g. inside a poll-close transaction) and refreshes
// the group summary for it.
func (cs *GroupChatService) PublishAppended(ctx context.Context, message models.GroupMessage) {
	if err := cs.Groups.UpdateSummary(ctx, message.GroupID, message.Text, message.UserName, message.CreatedAt); err != nil {
		log.Printf("❌ Failed to update summary for group %s: %v", message.GroupID, err)
	}
	cs.publish(message)
}

func (cs *GroupChatService) publish(message models.GroupMessage) {
	if cs.Events == nil {
		return
	}
	cs.Events.Publish(pubsub.Event{
		Topic:   pubsub.MessagesTopic(message.GroupID),
		Kind:    pubsub.KindCreated,
		Payload: message,
	})
}
