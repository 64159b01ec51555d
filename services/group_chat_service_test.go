package services

import (
	"context"
	"testing"
	"time"

	"huddle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(client *stubDynamo) *GroupChatService {
	dynamo := &DynamoService{Client: client}
	groups := &GroupService{Dynamo: dynamo}
	chat := &GroupChatService{Dynamo: dynamo, Groups: groups}
	groups.Chat = chat
	return chat
}

func TestPostMessageRejectsEmptyText(t *testing.T) {
	cs := newChatService(&stubDynamo{})

	_, err := cs.PostMessage(context.Background(), "g1", models.GroupMember{ID: "alice"}, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestPostMessageRejectsNonMember(t *testing.T) {
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
	}
	cs := newChatService(client)

	_, err := cs.PostMessage(context.Background(), "g1", models.GroupMember{ID: "mallory"}, "hi")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestPostMessageStoresAndSummarizes(t *testing.T) {
	var stored map[string]types.AttributeValue
	var summary *dynamodb.UpdateItemInput
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			stored = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			summary = in
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}
	cs := newChatService(client)

	message, err := cs.PostMessage(context.Background(), "g1", models.GroupMember{ID: "alice", Name: "Alice"}, "see you at 7")
	require.NoError(t, err)
	assert.NotEmpty(t, message.CreatedAt)
	assert.False(t, message.IsSystemMessage)

	var persisted models.GroupMessage
	require.NoError(t, attributevalue.UnmarshalMap(stored, &persisted))
	assert.Equal(t, "see you at 7", persisted.Text)
	assert.Equal(t, "alice", persisted.UserID)

	require.NotNil(t, summary)
	lastSender := summary.ExpressionAttributeValues[":lastSender"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "Alice", lastSender)
}

func TestPostSystemMessageSkipsMembershipCheck(t *testing.T) {
	var stored map[string]types.AttributeValue
	client := &stubDynamo{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			stored = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	cs := newChatService(client)

	message, err := cs.PostSystemMessage(context.Background(), "g1", "Bob left the group", nil)
	require.NoError(t, err)
	assert.True(t, message.IsSystemMessage)
	assert.Equal(t, models.SystemSenderID, message.UserID)

	var persisted models.GroupMessage
	require.NoError(t, attributevalue.UnmarshalMap(stored, &persisted))
	assert.True(t, persisted.IsSystemMessage)
}

func TestNextTimestampStrictlyIncreasing(t *testing.T) {
	cs := &GroupChatService{}

	// The sort key and the summary guard compare the stored strings, so the
	// string order itself must be strictly increasing.
	previous := ""
	for i := 0; i < 1000; i++ {
		stamp := cs.nextTimestamp("g1")
		_, err := time.Parse(time.RFC3339Nano, stamp)
		require.NoError(t, err)
		assert.Greater(t, stamp, previous)
		previous = stamp
	}
}

func TestNextTimestampStringOrderSurvivesCollisions(t *testing.T) {
	// Sub-second stamps with trailing zeros and whole-second stamps are the
	// two encodings where a trimmed fraction would sort a later stamp first.
	for _, nanos := range []int{250_000_000, 0} {
		last := time.Date(2027, 1, 1, 0, 0, 5, nanos, time.UTC)
		cs := &GroupChatService{lastStamp: map[string]time.Time{"g1": last}}

		earlier := formatStamp(last)
		later := cs.nextTimestamp("g1")
		assert.Greater(t, later, earlier)
	}
}

func TestFormatStampFixedWidth(t *testing.T) {
	stamp := formatStamp(time.Date(2027, 1, 1, 0, 0, 0, 250_000_000, time.UTC))
	assert.Equal(t, "2027-01-01T00:00:00.250000000Z", stamp)

	whole := formatStamp(time.Date(2027, 1, 1, 0, 0, 5, 0, time.UTC))
	assert.Equal(t, "2027-01-01T00:00:05.000000000Z", whole)
	assert.Greater(t, whole, stamp)
}

func TestNextTimestampPerGroup(t *testing.T) {
	cs := &GroupChatService{}

	a := cs.nextTimestamp("g1")
	b := cs.nextTimestamp("g2")
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	// Each group carries its own clock.
	assert.Len(t, cs.lastStamp, 2)
}

func TestAppendReissuesStampOnCollision(t *testing.T) {
	attempts := 0
	stamps := map[string]bool{}
	client := &stubDynamo{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			attempts++
			stamp := in.Item["createdAt"].(*types.AttributeValueMemberS).Value
			stamps[stamp] = true
			if attempts == 1 {
				return nil, &types.ConditionalCheckFailedException{}
			}
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	cs := newChatService(client)

	_, err := cs.PostSystemMessage(context.Background(), "g1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, stamps, 2)
}

func TestListMessagesAscending(t *testing.T) {
	var query *dynamodb.QueryInput
	client := &stubDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			query = in
			return &dynamodb.QueryOutput{}, nil
		},
	}
	cs := newChatService(client)

	_, err := cs.ListMessages(context.Background(), "g1", 50)
	require.NoError(t, err)
	require.NotNil(t, query)
	require.NotNil(t, query.ScanIndexForward)
	assert.True(t, *query.ScanIndexForward)
	require.NotNil(t, query.Limit)
	assert.Equal(t, int32(50), *query.Limit)
}
