package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"huddle_server/models"
	"huddle_server/pubsub"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// FriendService owns the friend-request ledger and the derived friendship
// view. Requests live one-per-pair, so duplicate checks hold in both
// directions with a single conditional write.
type FriendService struct {
	Dynamo   *DynamoService
	Profiles *UserProfileService
	Events   *pubsub.Hub
}

// SendRequest creates a pending request from sender to receiver. It fails
// with ErrDuplicateRequest if a pending or accepted record already exists
// between the pair, regardless of direction. A previously declined pair may
// be re-requested; the new request replaces the declined record.
func (fs *FriendService) SendRequest(ctx context.Context, senderID, receiverID, message string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	sender, err := fs.Profiles.GetUserProfile(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("sender profile: %w", err)
	}
	receiver, err := fs.Profiles.GetUserProfile(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("receiver profile: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("%s would like to be your friend", sender.DisplayName)
	}

	request := models.FriendRequest{
		PairID:         models.PairID(senderID, receiverID),
		RequestID:      uuid.New().String(),
		SenderID:       senderID,
		SenderName:     sender.DisplayName,
		SenderAvatar:   sender.AvatarURL,
		ReceiverID:     receiverID,
		ReceiverName:   receiver.DisplayName,
		ReceiverAvatar: receiver.AvatarURL,
		Status:         models.RequestStatusPending,
		Message:        message,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	err = fs.Dynamo.PutItemWithCondition(ctx, models.FriendRequestsTable, request,
		"attribute_not_exists(pairId) OR #status = :declined",
		map[string]types.AttributeValue{
			":declined": &types.AttributeValueMemberS{Value: models.RequestStatusDeclined},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	log.Printf("✅ Friend request %s created: %s -> %s", request.RequestID, senderID, receiverID)
	fs.publishToParties(request, pubsub.KindCreated)
	return &request, nil
}

// Respond accepts or declines a pending request. Only the receiver may
// respond; both outcomes are terminal.
func (fs *FriendService) Respond(ctx context.Context, requestID, responderID string, accept bool) (*models.FriendRequest, error) {
	request, err := fs.getByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ReceiverID != responderID {
		return nil, ErrNotAuthorized
	}
	if request.Status != models.RequestStatusPending {
		return nil, ErrInvalidState
	}

	newStatus := models.RequestStatusDeclined
	if accept {
		newStatus = models.RequestStatusAccepted
	}
	updatedAt := time.Now().UTC().Format(time.RFC3339)

	// Guard on both the pending status and the request ID: the pair item may
	// have been cancelled and re-created since the read.
	attrs, err := fs.Dynamo.UpdateItemWithCondition(ctx, models.FriendRequestsTable,
		"SET #status = :status, updatedAt = :updatedAt",
		map[string]types.AttributeValue{
			"pairId": &types.AttributeValueMemberS{Value: request.PairID},
		},
		map[string]types.AttributeValue{
			":status":    &types.AttributeValueMemberS{Value: newStatus},
			":updatedAt": &types.AttributeValueMemberS{Value: updatedAt},
			":pending":   &types.AttributeValueMemberS{Value: models.RequestStatusPending},
			":requestId": &types.AttributeValueMemberS{Value: requestID},
		},
		map[string]string{"#status": "status"},
		"#status = :pending AND requestId = :requestId",
	)
	if err != nil {
		if IsConditionFailure(err) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	var updated models.FriendRequest
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated request: %w", err)
	}

	log.Printf("✅ Friend request %s %s by %s", requestID, newStatus, responderID)
	fs.publishToParties(updated, pubsub.KindUpdated)
	return &updated, nil
}

// Cancel removes a pending request. Only the original sender may cancel,
// and only while the request is still pending. After a cancel the pair may
// be re-requested.
func (fs *FriendService) Cancel(ctx context.Context, requestID, requesterID string) error {
	request, err := fs.getByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.SenderID != requesterID {
		return ErrNotAuthorized
	}
	if request.Status != models.RequestStatusPending {
		return ErrInvalidState
	}

	err = fs.Dynamo.DeleteItemWithCondition(ctx, models.FriendRequestsTable,
		map[string]types.AttributeValue{
			"pairId": &types.AttributeValueMemberS{Value: request.PairID},
		},
		"#status = :pending AND requestId = :requestId",
		map[string]types.AttributeValue{
			":pending":   &types.AttributeValueMemberS{Value: models.RequestStatusPending},
			":requestId": &types.AttributeValueMemberS{Value: requestID},
		},
		map[string]string{"#status": "status"},
	)
	if err != nil {
		if IsConditionFailure(err) {
			return ErrInvalidState
		}
		return err
	}

	log.Printf("✅ Friend request %s cancelled by %s", requestID, requesterID)
	fs.publishToParties(*request, pubsub.KindDeleted)
	return nil
}

// ListFriends returns the deduplicated symmetric friendship view for a
// user: every counterpart of an accepted request the user is party to.
func (fs *FriendService) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	asSender, err := fs.queryByRole(ctx, models.RequestSenderIndex, "senderId", userID, models.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}
	asReceiver, err := fs.queryByRole(ctx, models.RequestReceiverIndex, "receiverId", userID, models.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}

	return mergeFriends(append(asSender, asReceiver...), userID), nil
}

// ListPending returns pending requests for a user filtered by role.
func (fs *FriendService) ListPending(ctx context.Context, userID, direction string) ([]models.FriendRequest, error) {
	switch direction {
	case models.DirectionIncoming:
		return fs.queryByRole(ctx, models.RequestReceiverIndex, "receiverId", userID, models.RequestStatusPending)
	case models.DirectionOutgoing:
		return fs.queryByRole(ctx, models.RequestSenderIndex, "senderId", userID, models.RequestStatusPending)
	default:
		return nil, ErrUnknownDirection
	}
}

func (fs *FriendService) queryByRole(ctx context.Context, index, roleField, userID, status string) ([]models.FriendRequest, error) {
	keyCondition := fmt.Sprintf("%s = :userId AND #status = :status", roleField)
	items, err := fs.Dynamo.QueryItemsWithIndex(ctx, models.FriendRequestsTable, index, keyCondition,
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
			":status": &types.AttributeValueMemberS{Value: status},
		},
		map[string]string{"#status": "status"},
		0,
	)
	if err != nil {
		return nil, err
	}

	var requests []models.FriendRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal friend requests: %w", err)
	}
	return requests, nil
}

func (fs *FriendService) getByRequestID(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	items, err := fs.Dynamo.QueryItemsWithIndex(ctx, models.FriendRequestsTable, models.RequestIDIndex,
		"requestId = :requestId",
		map[string]types.AttributeValue{
			":requestId": &types.AttributeValueMemberS{Value: requestID},
		},
		nil,
		1,
	)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	var request models.FriendRequest
	if err := attributevalue.UnmarshalMap(items[0], &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal friend request: %w", err)
	}
	return &request, nil
}

// mergeFriends folds accepted requests into the counterpart view,
// deduplicated by counterpart ID with the most recent updatedAt winning.
func mergeFriends(requests []models.FriendRequest, userID string) []models.Friend {
	latest := make(map[string]models.FriendRequest)
	var order []string

	for _, req := range requests {
		counterpart := req.ReceiverID
		if req.ReceiverID == userID {
			counterpart = req.SenderID
		}
		existing, seen := latest[counterpart]
		if !seen {
			order = append(order, counterpart)
			latest[counterpart] = req
			continue
		}
		if acceptedAt(req) > acceptedAt(existing) {
			latest[counterpart] = req
		}
	}

	friends := make([]models.Friend, 0, len(order))
	for _, id := range order {
		req := latest[id]
		friend := models.Friend{UserID: id, Since: acceptedAt(req)}
		if req.ReceiverID == userID {
			friend.Name = req.SenderName
			friend.Avatar = req.SenderAvatar
		} else {
			friend.Name = req.ReceiverName
			friend.Avatar = req.ReceiverAvatar
		}
		friends = append(friends, friend)
	}
	return friends
}

func acceptedAt(req models.FriendRequest) string {
	if req.UpdatedAt != "" {
		return req.UpdatedAt
	}
	return req.CreatedAt
}

// publishToParties notifies both users' live subscriptions; accept, decline
// and cancel become visible without a refresh.
func (fs *FriendService) publishToParties(request models.FriendRequest, kind string) {
	if fs.Events == nil {
		return
	}
	for _, userID := range []string{request.SenderID, request.ReceiverID} {
		fs.Events.Publish(pubsub.Event{
			Topic:   pubsub.FriendRequestsTopic(userID),
			Kind:    kind,
			Payload: request,
		})
	}
}
