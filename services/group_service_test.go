package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"huddle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup() models.Group {
	return models.Group{
		GroupID:   "g1",
		Name:      "Weekend Crew",
		MemberIDs: []string{"alice", "bob"},
		Members: []models.GroupMember{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
		CreatedBy:       "alice",
		CreatedAt:       "2026-01-01T00:00:00Z",
		LastMessageTime: "2026-01-01T00:00:00Z",
		Version:         1,
	}
}

func TestCreateGroupValidation(t *testing.T) {
	gs := &GroupService{Dynamo: &DynamoService{Client: &stubDynamo{}}}

	_, err := gs.CreateGroup(context.Background(), "alice", "  ", []models.GroupMember{{ID: "alice"}})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = gs.CreateGroup(context.Background(), "alice", "Crew", nil)
	assert.ErrorIs(t, err, ErrEmptyMembership)

	// The creator must be in the member set.
	_, err = gs.CreateGroup(context.Background(), "alice", "Crew", []models.GroupMember{{ID: "bob"}})
	assert.ErrorIs(t, err, ErrEmptyMembership)
}

func TestCreateGroup(t *testing.T) {
	var stored map[string]types.AttributeValue
	client := &stubDynamo{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			stored = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	group, err := gs.CreateGroup(context.Background(), "alice", "Weekend Crew", []models.GroupMember{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Group created!", group.LastMessage)
	assert.Equal(t, []string{"alice", "bob"}, group.MemberIDs)
	require.NotNil(t, stored)

	var persisted models.Group
	require.NoError(t, attributevalue.UnmarshalMap(stored, &persisted))
	assert.Equal(t, group.GroupID, persisted.GroupID)
	assert.Equal(t, int64(1), persisted.Version)
}

func TestRenameRequiresMembership(t *testing.T) {
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	_, err := gs.Rename(context.Background(), "g1", "mallory", "Hijacked")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestLeaveKeepsMemberFieldsInLockstep(t *testing.T) {
	var update *dynamodb.UpdateItemInput
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			update = in
			remaining := testGroup()
			remaining.MemberIDs = []string{"alice"}
			remaining.Members = remaining.Members[:1]
			remaining.Version = 2
			return &dynamodb.UpdateItemOutput{Attributes: mustMarshal(remaining)}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	updated, err := gs.Leave(context.Background(), "g1", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, updated.MemberIDs)
	require.Len(t, updated.Members, 1)
	assert.Equal(t, "alice", updated.Members[0].ID)

	require.NotNil(t, update)
	assert.Equal(t, "version = :oldVersion", *update.ConditionExpression)

	var newIDs []string
	require.NoError(t, attributevalue.Unmarshal(update.ExpressionAttributeValues[":memberIds"], &newIDs))
	assert.Equal(t, []string{"alice"}, newIDs)

	lastMessage := update.ExpressionAttributeValues[":lastMessage"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "Bob left the group", lastMessage)
}

func TestLeaveNonMember(t *testing.T) {
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	_, err := gs.Leave(context.Background(), "g1", "mallory")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestLeaveRetriesOnVersionConflict(t *testing.T) {
	attempts := 0
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			attempts++
			if attempts == 1 {
				return nil, &types.ConditionalCheckFailedException{}
			}
			remaining := testGroup()
			remaining.MemberIDs = []string{"alice"}
			remaining.Members = remaining.Members[:1]
			remaining.Version = 2
			return &dynamodb.UpdateItemOutput{Attributes: mustMarshal(remaining)}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	updated, err := gs.Leave(context.Background(), "g1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"alice"}, updated.MemberIDs)
}

func TestLeaveGivesUpAfterRepeatedConflicts(t *testing.T) {
	client := &stubDynamo{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: mustMarshal(testGroup())}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	_, err := gs.Leave(context.Background(), "g1", "bob")
	assert.ErrorIs(t, err, ErrWriteConflict)
}

func TestUpdateSummaryDropsStaleWrites(t *testing.T) {
	client := &stubDynamo{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	// A write that lost the ordering race is dropped, never an error.
	err := gs.UpdateSummary(context.Background(), "g1", "old news", "Bob", "2025-12-31T00:00:00Z")
	assert.NoError(t, err)
}

func TestSortGroupsByActivity(t *testing.T) {
	groups := []models.Group{
		{GroupID: "a", LastMessageTime: "2026-01-01T00:00:00Z"},
		{GroupID: "b", LastMessageTime: "2026-03-01T00:00:00Z"},
		{GroupID: "c", LastMessageTime: "2026-02-01T00:00:00Z"},
		{GroupID: "d", LastMessageTime: "2026-02-01T00:00:00Z"},
	}

	sortGroupsByActivity(groups)
	assert.Equal(t, "b", groups[0].GroupID)
	// Equal timestamps keep their original relative order.
	assert.Equal(t, "c", groups[1].GroupID)
	assert.Equal(t, "d", groups[2].GroupID)
	assert.Equal(t, "a", groups[3].GroupID)
}

func TestAttachRecommendationsTeaser(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}

	var update *dynamodb.UpdateItemInput
	client := &stubDynamo{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			update = in
			return &dynamodb.UpdateItemOutput{Attributes: mustMarshal(testGroup())}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	_, err := gs.AttachRecommendations(context.Background(), "g1", string(long))
	require.NoError(t, err)
	require.NotNil(t, update)

	stored := update.ExpressionAttributeValues[":recommendations"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, string(long), stored)

	teaser := update.ExpressionAttributeValues[":lastMessage"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "AI Recommendation: "+string(long[:100])+"...", teaser)
}

func TestAttachRecommendationsShortTextKeptWhole(t *testing.T) {
	var update *dynamodb.UpdateItemInput
	client := &stubDynamo{
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			update = in
			return &dynamodb.UpdateItemOutput{Attributes: mustMarshal(testGroup())}, nil
		},
	}
	gs := &GroupService{Dynamo: &DynamoService{Client: client}}

	_, err := gs.AttachRecommendations(context.Background(), "g1", "Try the rooftop bar")
	require.NoError(t, err)

	teaser := update.ExpressionAttributeValues[":lastMessage"].(*types.AttributeValueMemberS).Value
	assert.Equal(t, "AI Recommendation: Try the rooftop bar", teaser)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 100))

	// Runes are the unit, so a multi-byte character at the cut survives
	// intact and the result stays valid UTF-8.
	long := strings.Repeat("é", 120)
	got := truncateRunes(long, 100)
	assert.Equal(t, strings.Repeat("é", 100)+"...", got)
	assert.True(t, utf8.ValidString(got))

	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, truncateRunes(exact, 100))
}
