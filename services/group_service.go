package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"huddle_server/models"
	"huddle_server/pubsub"
	"huddle_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// GroupService owns group records, membership mutations and the activity
// summary consumed by the group listing. Membership writes go through an
// optimistic version stamp so concurrent leaves never lose updates.
type GroupService struct {
	Dynamo *DynamoService
	Events *pubsub.Hub
	Chat   *GroupChatService // Set after construction; used for system messages
}

const membershipRetries = 3

// CreateGroup creates a group from a selected friend set. The member list
// must be non-empty and include the creator.
func (gs *GroupService) CreateGroup(ctx context.Context, creatorID, name string, members []models.GroupMember) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if len(members) == 0 {
		return nil, ErrEmptyMembership
	}

	memberIDs := make([]string, 0, len(members))
	creatorIncluded := false
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
		if m.ID == creatorID {
			creatorIncluded = true
		}
	}
	if !creatorIncluded {
		return nil, ErrEmptyMembership
	}

	now := nowStamp()
	group := models.Group{
		GroupID:         uuid.New().String(),
		Name:            strings.TrimSpace(name),
		MemberIDs:       memberIDs,
		Members:         members,
		CreatedBy:       creatorID,
		CreatedAt:       now,
		LastMessage:     "Group created!",
		LastMessageTime: now,
		UnreadCount:     0,
		Version:         1,
	}

	if err := gs.Dynamo.PutItem(ctx, models.GroupsTable, group); err != nil {
		return nil, err
	}

	log.Printf("✅ Group %s created by %s with %d members", group.GroupID, creatorID, len(members))
	gs.publishToMembers(group.MemberIDs, group, pubsub.KindCreated)
	return &group, nil
}

// GetGroup retrieves a group by ID
func (gs *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	item, err := gs.Dynamo.GetItem(ctx, models.GroupsTable, map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	})
	if err != nil {
		return nil, err
	}

	var group models.Group
	if err := attributevalue.UnmarshalMap(item, &group); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}
	return &group, nil
}

// Rename changes the group name. Only members may rename; the membership
// check rides on the write's condition so a concurrent leave cannot slip
// through.
func (gs *GroupService) Rename(ctx context.Context, groupID, actorID, newName string) (*models.Group, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}

	group, err := gs.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(actorID) {
		return nil, ErrNotAMember
	}
	actorName := memberName(group, actorID)

	now := nowStamp()
	attrs, err := gs.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
		"SET #name = :name, lastMessage = :lastMessage, lastMessageTime = :now",
		map[string]types.AttributeValue{
			"groupId": &types.AttributeValueMemberS{Value: groupID},
		},
		map[string]types.AttributeValue{
			":name":        &types.AttributeValueMemberS{Value: newName},
			":lastMessage": &types.AttributeValueMemberS{Value: fmt.Sprintf("Group name changed to %q", newName)},
			":now":         &types.AttributeValueMemberS{Value: now},
			":actorId":     &types.AttributeValueMemberS{Value: actorID},
		},
		map[string]string{"#name": "name"},
		"contains(memberIds, :actorId)",
	)
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	var updated models.Group
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal renamed group: %w", err)
	}

	if gs.Chat != nil {
		text := fmt.Sprintf("%s changed the group name to %q", actorName, newName)
		if _, err := gs.Chat.PostSystemMessage(ctx, groupID, text, nil); err != nil {
			log.Printf("❌ Failed to post rename system message for group %s: %v", groupID, err)
		}
	}

	gs.publishToMembers(updated.MemberIDs, updated, pubsub.KindUpdated)
	return &updated, nil
}

// Leave removes the actor from both memberIds and members, keeping the two
// in lockstep. The group record persists even when membership empties.
// The write is a compare-and-set on the version stamp, retried a bounded
// number of times under contention.
func (gs *GroupService) Leave(ctx context.Context, groupID, actorID string) (*models.Group, error) {
	var actorName string

	for attempt := 0; attempt < membershipRetries; attempt++ {
		group, err := gs.GetGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(actorID) {
			return nil, ErrNotAMember
		}
		actorName = memberName(group, actorID)

		newMemberIDs := make([]string, 0, len(group.MemberIDs)-1)
		for _, id := range group.MemberIDs {
			if id != actorID {
				newMemberIDs = append(newMemberIDs, id)
			}
		}
		newMembers := make([]models.GroupMember, 0, len(group.Members))
		for _, m := range group.Members {
			if m.ID != actorID {
				newMembers = append(newMembers, m)
			}
		}

		idsAttr, err := attributevalue.Marshal(newMemberIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal member ids: %w", err)
		}
		membersAttr, err := attributevalue.Marshal(newMembers)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal members: %w", err)
		}

		now := nowStamp()
		attrs, err := gs.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
			"SET memberIds = :memberIds, members = :members, lastMessage = :lastMessage, lastMessageTime = :now, version = :newVersion",
			map[string]types.AttributeValue{
				"groupId": &types.AttributeValueMemberS{Value: groupID},
			},
			map[string]types.AttributeValue{
				":memberIds":   idsAttr,
				":members":     membersAttr,
				":lastMessage": &types.AttributeValueMemberS{Value: fmt.Sprintf("%s left the group", actorName)},
				":now":         &types.AttributeValueMemberS{Value: now},
				":newVersion":  &types.AttributeValueMemberN{Value: strconv.FormatInt(group.Version+1, 10)},
				":oldVersion":  &types.AttributeValueMemberN{Value: strconv.FormatInt(group.Version, 10)},
			},
			nil,
			"version = :oldVersion",
		)
		if err != nil {
			if IsConditionFailure(err) {
				continue // Lost the race; re-read and retry
			}
			return nil, err
		}

		var updated models.Group
		if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group after leave: %w", err)
		}

		if gs.Chat != nil {
			text := fmt.Sprintf("%s left the group", actorName)
			if _, err := gs.Chat.PostSystemMessage(ctx, groupID, text, nil); err != nil {
				log.Printf("❌ Failed to post leave system message for group %s: %v", groupID, err)
			}
		}

		log.Printf("✅ %s left group %s (%d members remain)", actorID, groupID, len(updated.MemberIDs))
		gs.publishToMembers(append(updated.MemberIDs, actorID), updated, pubsub.KindUpdated)
		return &updated, nil
	}

	return nil, ErrWriteConflict
}

// UpdateSummary refreshes the group's last-activity fields after new
// content. Idempotent and last-write-wins on lastMessageTime: a write with
// a stale timestamp is dropped, never an error.
func (gs *GroupService) UpdateSummary(ctx context.Context, groupID, lastMessage, lastSender, lastMessageTime string) error {
	attrs, err := gs.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
		"SET lastMessage = :lastMessage, lastSender = :lastSender, lastMessageTime = :ts ADD unreadCount :one",
		map[string]types.AttributeValue{
			"groupId": &types.AttributeValueMemberS{Value: groupID},
		},
		map[string]types.AttributeValue{
			":lastMessage": &types.AttributeValueMemberS{Value: lastMessage},
			":lastSender":  &types.AttributeValueMemberS{Value: lastSender},
			":ts":          &types.AttributeValueMemberS{Value: lastMessageTime},
			":one":         &types.AttributeValueMemberN{Value: "1"},
		},
		nil,
		"attribute_not_exists(lastMessageTime) OR lastMessageTime <= :ts",
	)
	if err != nil {
		if IsConditionFailure(err) {
			return nil // Newer activity already recorded
		}
		return err
	}

	if gs.Events != nil {
		for _, memberID := range utils.ExtractStringList(attrs, "memberIds") {
			gs.Events.Publish(pubsub.Event{
				Topic: pubsub.GroupsTopic(memberID),
				Kind:  pubsub.KindUpdated,
			})
		}
	}
	return nil
}

// ResetUnread zeroes the unread counter, e.g. when a member opens the chat.
func (gs *GroupService) ResetUnread(ctx context.Context, groupID string) error {
	_, err := gs.Dynamo.UpdateItem(ctx, models.GroupsTable,
		"SET unreadCount = :zero",
		map[string]types.AttributeValue{
			"groupId": &types.AttributeValueMemberS{Value: groupID},
		},
		map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		nil,
	)
	return err
}

// ListForUser returns every group the user belongs to, most recently active
// first.
func (gs *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := gs.Dynamo.ScanWithFilter(ctx, models.GroupsTable,
		"contains(memberIds, :userId)",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		nil,
		&groups,
	)
	if err != nil {
		return nil, err
	}

	sortGroupsByActivity(groups)
	return groups, nil
}

// AttachRecommendations stores venue guidance from the recommendation
// service verbatim and surfaces a teaser in the activity summary. The text
// is never parsed.
func (gs *GroupService) AttachRecommendations(ctx context.Context, groupID, recommendations string) (*models.Group, error) {
	teaser := fmt.Sprintf("AI Recommendation: %s", truncateRunes(recommendations, 100))

	now := nowStamp()
	attrs, err := gs.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
		"SET aiRecommendations = :recommendations, lastMessage = :lastMessage, lastMessageTime = :now",
		map[string]types.AttributeValue{
			"groupId": &types.AttributeValueMemberS{Value: groupID},
		},
		map[string]types.AttributeValue{
			":recommendations": &types.AttributeValueMemberS{Value: recommendations},
			":lastMessage":     &types.AttributeValueMemberS{Value: teaser},
			":now":             &types.AttributeValueMemberS{Value: now},
		},
		nil,
		"attribute_exists(groupId)",
	)
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var updated models.Group
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}

	gs.publishToMembers(updated.MemberIDs, updated, pubsub.KindUpdated)
	return &updated, nil
}

// truncateRunes shortens s to at most max runes, never splitting a rune,
// and marks a shortened string with an ellipsis.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// sortGroupsByActivity orders by lastMessageTime descending; ties keep
// their original order.
func sortGroupsByActivity(groups []models.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastMessageTime > groups[j].LastMessageTime
	})
}

func memberName(group *models.Group, userID string) string {
	for _, m := range group.Members {
		if m.ID == userID {
			return m.Name
		}
	}
	return userID
}

func (gs *GroupService) publishToMembers(memberIDs []string, group models.Group, kind string) {
	if gs.Events == nil {
		return
	}
	for _, memberID := range memberIDs {
		gs.Events.Publish(pubsub.Event{
			Topic:   pubsub.GroupsTopic(memberID),
			Kind:    kind,
			Payload: group,
		})
	}
}
