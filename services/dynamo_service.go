package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the slice of the DynamoDB client the engine uses. Tests
// substitute a stub client.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type DynamoService struct {
	Client DynamoAPI
}

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient() *dynamodb.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

const (
	maxAttempts  = 3
	retryBackoff = 100 * time.Millisecond
)

// IsConditionFailure reports whether err is a rejected conditional write.
// These are deliberate rejections and are never retried as transient.
func IsConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var txc *types.TransactionCanceledException
	if errors.As(err, &txc) {
		for _, reason := range txc.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// withRetry runs op, retrying transient store failures with bounded backoff.
// Conditional failures pass through untouched; exhausted retries collapse
// into ErrUnavailable.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = op(); err == nil || IsConditionFailure(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff << attempt):
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// PutItem marshals item and writes it unconditionally.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return ds.PutItemWithCondition(ctx, tableName, item, "", nil, nil)
}

// PutItemWithCondition writes item, guarded by conditionExpression when one
// is given. A rejected condition is returned as-is for the caller to map.
func (ds *DynamoService) PutItemWithCondition(
	ctx context.Context,
	tableName string,
	item interface{},
	conditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	}
	if conditionExpression != "" {
		input.ConditionExpression = &conditionExpression
		if len(expressionAttributeValues) > 0 {
			input.ExpressionAttributeValues = expressionAttributeValues
		}
		if len(expressionAttributeNames) > 0 {
			input.ExpressionAttributeNames = expressionAttributeNames
		}
	}

	return withRetry(ctx, func() error {
		_, err := ds.Client.PutItem(ctx, input)
		if err != nil && !IsConditionFailure(err) {
			return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
		}
		return err
	})
}

// GetItem retrieves an item from DynamoDB. A missing item is ErrNotFound.
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	var item map[string]types.AttributeValue
	err := withRetry(ctx, func() error {
		output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &tableName,
			Key:       key,
		})
		if err != nil {
			return fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
		}
		item = output.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// UpdateItem applies updateExpression to the keyed item and returns the new
// attributes.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName string,
	updateExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	return ds.UpdateItemWithCondition(ctx, tableName, updateExpression, key, expressionAttributeValues, expressionAttributeNames, "")
}

// UpdateItemWithCondition applies updateExpression guarded by
// conditionExpression. Membership checks, optimistic version stamps and
// last-write-wins timestamps all ride on the condition.
func (ds *DynamoService) UpdateItemWithCondition(
	ctx context.Context,
	tableName string,
	updateExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	conditionExpression string,
) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:        &tableName,
		Key:              key,
		UpdateExpression: &updateExpression,
		ReturnValues:     types.ReturnValueAllNew,
	}
	if len(expressionAttributeValues) > 0 {
		input.ExpressionAttributeValues = expressionAttributeValues
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if conditionExpression != "" {
		input.ConditionExpression = &conditionExpression
	}

	var attrs map[string]types.AttributeValue
	err := withRetry(ctx, func() error {
		output, err := ds.Client.UpdateItem(ctx, input)
		if err != nil {
			if IsConditionFailure(err) {
				return err
			}
			return fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
		}
		attrs = output.Attributes
		return nil
	})
	if err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = map[string]types.AttributeValue{}
	}
	return attrs, nil
}

// DeleteItem removes an item from DynamoDB
func (ds *DynamoService) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	return ds.DeleteItemWithCondition(ctx, tableName, key, "", nil, nil)
}

// DeleteItemWithCondition removes the keyed item when conditionExpression
// holds.
func (ds *DynamoService) DeleteItemWithCondition(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	conditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) error {
	input := &dynamodb.DeleteItemInput{
		TableName: &tableName,
		Key:       key,
	}
	if conditionExpression != "" {
		input.ConditionExpression = &conditionExpression
		if len(expressionAttributeValues) > 0 {
			input.ExpressionAttributeValues = expressionAttributeValues
		}
		if len(expressionAttributeNames) > 0 {
			input.ExpressionAttributeNames = expressionAttributeNames
		}
	}

	return withRetry(ctx, func() error {
		_, err := ds.Client.DeleteItem(ctx, input)
		if err != nil && !IsConditionFailure(err) {
			return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
		}
		return err
	})
}

// QueryItems queries items from DynamoDB using a KeyConditionExpression
func (ds *DynamoService) QueryItems(
	ctx context.Context,
	tableName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if limit > 0 {
		input.Limit = &limit
	}
	return ds.query(ctx, input)
}

// QueryItemsWithIndex queries items using a Global Secondary Index (GSI)
func (ds *DynamoService) QueryItemsWithIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 &tableName,
		IndexName:                 &indexName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if limit > 0 {
		input.Limit = &limit
	}
	return ds.query(ctx, input)
}

// QueryItemsWithOptions queries DynamoDB with sorting and limit options.
// ascending=true returns oldest-first, which is the order chat histories are
// served in.
func (ds *DynamoService) QueryItemsWithOptions(
	ctx context.Context,
	tableName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
	ascending bool,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
		ScanIndexForward:          aws.Bool(ascending),
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if limit > 0 {
		input.Limit = &limit
	}
	return ds.query(ctx, input)
}

// QueryItemsWithFilter queries with both a KeyConditionExpression and a
// FilterExpression.
func (ds *DynamoService) QueryItemsWithFilter(
	ctx context.Context,
	tableName string,
	keyConditionExpression string,
	filterExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
	}
	if filterExpression != "" {
		input.FilterExpression = &filterExpression
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	return ds.query(ctx, input)
}

func (ds *DynamoService) query(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	err := withRetry(ctx, func() error {
		output, err := ds.Client.Query(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to query table '%s': %w", *input.TableName, err)
		}
		items = output.Items
		return nil
	})
	return items, err
}

// ScanWithFilter performs a full scan with a FilterExpression and
// unmarshals the matches into result (a pointer to a slice of structs).
func (ds *DynamoService) ScanWithFilter(
	ctx context.Context,
	tableName string,
	filterExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	result interface{},
) error {
	input := &dynamodb.ScanInput{
		TableName: &tableName,
	}
	if filterExpression != "" {
		input.FilterExpression = &filterExpression
		input.ExpressionAttributeValues = expressionAttributeValues
		if len(expressionAttributeNames) > 0 {
			input.ExpressionAttributeNames = expressionAttributeNames
		}
	}

	var items []map[string]types.AttributeValue
	err := withRetry(ctx, func() error {
		output, err := ds.Client.Scan(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to scan table '%s': %w", tableName, err)
		}
		items = output.Items
		return nil
	})
	if err != nil {
		return err
	}

	if err := attributevalue.UnmarshalListOfMaps(items, result); err != nil {
		return fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return nil
}

// TransactWrite executes the given writes as a single atomic transaction.
// Used where a terminal state change and its announcement must commit
// together.
func (ds *DynamoService) TransactWrite(ctx context.Context, items []types.TransactWriteItem) error {
	input := &dynamodb.TransactWriteItemsInput{TransactItems: items}
	return withRetry(ctx, func() error {
		_, err := ds.Client.TransactWriteItems(ctx, input)
		if err != nil && !IsConditionFailure(err) {
			return fmt.Errorf("transact write failed: %w", err)
		}
		return err
	})
}
