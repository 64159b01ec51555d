package services

import (
	"context"
	"testing"

	"huddle_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileItem(userID, name string) map[string]types.AttributeValue {
	return mustMarshal(models.UserProfile{UserID: userID, DisplayName: name})
}

func newFriendService(client *stubDynamo) *FriendService {
	dynamo := &DynamoService{Client: client}
	return &FriendService{Dynamo: dynamo, Profiles: &UserProfileService{Dynamo: dynamo}}
}

func TestPairID(t *testing.T) {
	assert.Equal(t, "alice#bob", models.PairID("alice", "bob"))
	assert.Equal(t, "alice#bob", models.PairID("bob", "alice"))
}

func TestSendRequestToSelf(t *testing.T) {
	fs := newFriendService(&stubDynamo{})

	_, err := fs.SendRequest(context.Background(), "alice", "alice", "")
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestSendRequestDefaultsMessage(t *testing.T) {
	var stored *dynamodb.PutItemInput
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			id := in.Key["userId"].(*types.AttributeValueMemberS).Value
			name := map[string]string{"alice": "Alice", "bob": "Bob"}[id]
			return &dynamodb.GetItemOutput{Item: profileItem(id, name)}, nil
		},
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			stored = in
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	fs := newFriendService(client)

	request, err := fs.SendRequest(context.Background(), "alice", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice would like to be your friend", request.Message)
	assert.Equal(t, "alice#bob", request.PairID)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	require.NotNil(t, stored)
	assert.Contains(t, *stored.ConditionExpression, "attribute_not_exists(pairId)")
}

func TestSendRequestDuplicatePair(t *testing.T) {
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			id := in.Key["userId"].(*types.AttributeValueMemberS).Value
			return &dynamodb.GetItemOutput{Item: profileItem(id, id)}, nil
		},
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	fs := newFriendService(client)

	// The pair key is direction-agnostic, so the reverse request collides too.
	_, err := fs.SendRequest(context.Background(), "bob", "alice", "")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func pendingRequestItems(requestID string) []map[string]types.AttributeValue {
	return []map[string]types.AttributeValue{mustMarshal(models.FriendRequest{
		PairID:     "alice#bob",
		RequestID:  requestID,
		SenderID:   "alice",
		ReceiverID: "bob",
		Status:     models.RequestStatusPending,
		CreatedAt:  "2026-01-01T00:00:00Z",
	})}
}

func TestRespondOnlyReceiver(t *testing.T) {
	client := &stubDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: pendingRequestItems("req-1")}, nil
		},
	}
	fs := newFriendService(client)

	_, err := fs.Respond(context.Background(), "req-1", "alice", true)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRespondAccept(t *testing.T) {
	client := &stubDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: pendingRequestItems("req-1")}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return &dynamodb.UpdateItemOutput{Attributes: mustMarshal(models.FriendRequest{
				PairID:     "alice#bob",
				RequestID:  "req-1",
				SenderID:   "alice",
				ReceiverID: "bob",
				Status:     models.RequestStatusAccepted,
				UpdatedAt:  "2026-01-02T00:00:00Z",
			})}, nil
		},
	}
	fs := newFriendService(client)

	updated, err := fs.Respond(context.Background(), "req-1", "bob", true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, updated.Status)
}

func TestRespondAlreadyResolved(t *testing.T) {
	items := []map[string]types.AttributeValue{mustMarshal(models.FriendRequest{
		PairID:     "alice#bob",
		RequestID:  "req-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Status:     models.RequestStatusAccepted,
	})}
	client := &stubDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: items}, nil
		},
	}
	fs := newFriendService(client)

	_, err := fs.Respond(context.Background(), "req-1", "bob", false)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelOnlySenderWhilePending(t *testing.T) {
	deleted := false
	client := &stubDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: pendingRequestItems("req-1")}, nil
		},
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			deleted = true
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}
	fs := newFriendService(client)

	err := fs.Cancel(context.Background(), "req-1", "bob")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.False(t, deleted)

	err = fs.Cancel(context.Background(), "req-1", "alice")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCancelUnknownRequest(t *testing.T) {
	fs := newFriendService(&stubDynamo{})

	err := fs.Cancel(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeFriendsDeduplicates(t *testing.T) {
	requests := []models.FriendRequest{
		{SenderID: "alice", SenderName: "Alice", ReceiverID: "bob", ReceiverName: "Bob", UpdatedAt: "2026-01-01T00:00:00Z"},
		{SenderID: "bob", SenderName: "Bob", ReceiverID: "alice", ReceiverName: "Alice", UpdatedAt: "2026-02-01T00:00:00Z"},
		{SenderID: "carol", SenderName: "Carol", ReceiverID: "alice", ReceiverName: "Alice", UpdatedAt: "2026-01-15T00:00:00Z"},
	}

	friends := mergeFriends(requests, "alice")
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].UserID)
	assert.Equal(t, "Bob", friends[0].Name)
	// Duplicate pair rows collapse to the most recent acceptance.
	assert.Equal(t, "2026-02-01T00:00:00Z", friends[0].Since)
	assert.Equal(t, "carol", friends[1].UserID)
}

func TestMergeFriendsSymmetricView(t *testing.T) {
	requests := []models.FriendRequest{
		{SenderID: "alice", SenderName: "Alice", ReceiverID: "bob", ReceiverName: "Bob", UpdatedAt: "2026-01-01T00:00:00Z"},
	}

	aliceView := mergeFriends(requests, "alice")
	bobView := mergeFriends(requests, "bob")
	require.Len(t, aliceView, 1)
	require.Len(t, bobView, 1)
	assert.Equal(t, "bob", aliceView[0].UserID)
	assert.Equal(t, "alice", bobView[0].UserID)
}

func TestListPendingRejectsUnknownDirection(t *testing.T) {
	fs := newFriendService(&stubDynamo{})

	_, err := fs.ListPending(context.Background(), "alice", "sideways")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
