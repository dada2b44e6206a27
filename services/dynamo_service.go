package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	appconfig "amora_server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrItemNotFound is returned by GetItem when no item exists for the key.
var ErrItemNotFound = errors.New("item not found")

// ErrConditionFailed is returned when a conditional put or update is rejected
// because the condition did not hold. Callers use it to detect that a
// concurrent writer got there first.
var ErrConditionFailed = errors.New("conditional check failed")

// DynamoAPI is the slice of DynamoService the other services depend on.
// Tests substitute an in-memory implementation.
type DynamoAPI interface {
	GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error)
	PutItem(ctx context.Context, tableName string, item interface{}) error
	PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, pkAttr string) error
	UpdateItem(ctx context.Context, tableName, updateExpression, conditionExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error)
	DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error
	ScanItems(ctx context.Context, tableName, filterExpression string, values map[string]types.AttributeValue, names map[string]string, out interface{}) error
	QueryItemsWithIndex(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, pageSize int32) ([]map[string]types.AttributeValue, error)
	QueryItemsWithOptions(ctx context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error)
}

// DynamoClient is the slice of *dynamodb.Client the service calls. Tests
// substitute a fake to exercise pagination without a live table.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type DynamoService struct {
	Client DynamoClient
}

var _ DynamoAPI = (*DynamoService)(nil)
var _ DynamoClient = (*dynamodb.Client)(nil)

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient(ctx context.Context, cfg *appconfig.Config) *dynamodb.Client {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(awsCfg)
}

// GetItem retrieves an item from DynamoDB
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	if output.Item == nil {
		return nil, ErrItemNotFound
	}
	return output.Item, nil
}

// PutItem marshals and stores an item, overwriting any existing one.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// PutItemIfAbsent stores an item only if no item with the same partition key
// exists. Returns ErrConditionFailed when one does, so concurrent writers of
// the same key converge on a single record.
func (ds *DynamoService) PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, pkAttr string) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	condition := fmt.Sprintf("attribute_not_exists(%s)", pkAttr)
	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &tableName,
		Item:                marshaledItem,
		ConditionExpression: &condition,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// UpdateItem applies an update expression and returns the new attributes.
// An optional condition expression guards the update; ErrConditionFailed is
// returned when the condition does not hold.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName, updateExpression, conditionExpression string,
	key, values map[string]types.AttributeValue,
	names map[string]string,
) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	updateInput := &dynamodb.UpdateItemInput{
		TableName:                &tableName,
		Key:                      key,
		UpdateExpression:         &updateExpression,
		ExpressionAttributeNames: names,
		ReturnValues:             types.ReturnValueAllNew,
	}
	if len(values) > 0 {
		updateInput.ExpressionAttributeValues = values
	}
	if conditionExpression != "" {
		updateInput.ConditionExpression = &conditionExpression
	}

	output, err := ds.Client.UpdateItem(ctx, updateInput)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	if output.Attributes == nil {
		return map[string]types.AttributeValue{}, nil
	}
	return output.Attributes, nil
}

// DeleteItem removes an item from DynamoDB
func (ds *DynamoService) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	_, err := ds.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return nil
}

// ScanItems performs a full scan with a filter expression, paginating until
// the table is exhausted, and unmarshals the items into out (a pointer to a
// slice of structs).
func (ds *DynamoService) ScanItems(
	ctx context.Context,
	tableName, filterExpression string,
	values map[string]types.AttributeValue,
	names map[string]string,
	out interface{},
) error {
	scanInput := &dynamodb.ScanInput{
		TableName: &tableName,
	}
	if filterExpression != "" {
		scanInput.FilterExpression = &filterExpression
		scanInput.ExpressionAttributeValues = values
		if len(names) > 0 {
			scanInput.ExpressionAttributeNames = names
		}
	}

	var items []map[string]types.AttributeValue
	for {
		output, err := ds.Client.Scan(ctx, scanInput)
		if err != nil {
			return fmt.Errorf("failed to scan table '%s': %w", tableName, err)
		}
		items = append(items, output.Items...)
		if output.LastEvaluatedKey == nil {
			break
		}
		scanInput.ExclusiveStartKey = output.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return nil
}

// QueryItemsWithIndex queries items from DynamoDB using a Global Secondary
// Index (GSI), following LastEvaluatedKey until the result set is exhausted.
// pageSize bounds each round trip, not the total.
func (ds *DynamoService) QueryItemsWithIndex(
	ctx context.Context,
	tableName, indexName, keyCondition string,
	values map[string]types.AttributeValue,
	names map[string]string,
	pageSize int32,
) ([]map[string]types.AttributeValue, error) {
	queryInput := &dynamodb.QueryInput{
		TableName:                 &tableName,
		IndexName:                 &indexName,
		KeyConditionExpression:    &keyCondition,
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
		Limit:                     aws.Int32(pageSize),
	}

	var items []map[string]types.AttributeValue
	for {
		output, err := ds.Client.Query(ctx, queryInput)
		if err != nil {
			return nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
		}
		items = append(items, output.Items...)
		if output.LastEvaluatedKey == nil {
			break
		}
		queryInput.ExclusiveStartKey = output.LastEvaluatedKey
	}
	return items, nil
}

// QueryItemsWithOptions queries DynamoDB with sorting and limit options,
// paginating until limit items are collected. limit <= 0 returns the whole
// result set.
func (ds *DynamoService) QueryItemsWithOptions(
	ctx context.Context,
	tableName, keyCondition string,
	values map[string]types.AttributeValue,
	names map[string]string,
	limit int32,
	latestFirst bool,
) ([]map[string]types.AttributeValue, error) {
	scanIndexForward := !latestFirst // false = descending order (latest first)

	queryInput := &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyCondition,
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
		ScanIndexForward:          &scanIndexForward,
	}
	if limit > 0 {
		queryInput.Limit = aws.Int32(limit)
	}

	var items []map[string]types.AttributeValue
	for {
		output, err := ds.Client.Query(ctx, queryInput)
		if err != nil {
			return nil, fmt.Errorf("failed to query table '%s': %w", tableName, err)
		}
		items = append(items, output.Items...)
		if limit > 0 && int32(len(items)) >= limit {
			return items[:limit], nil
		}
		if output.LastEvaluatedKey == nil {
			break
		}
		queryInput.ExclusiveStartKey = output.LastEvaluatedKey
	}
	return items, nil
}
