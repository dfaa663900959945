// Package dynamodb implements the data-access layer on DynamoDB: a thin
// store client over the SDK, the entity codec, and one store per entity
// family (users, projects with membership and tasks, notifications).
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "taskboard/pkg/errors"
)

// Item is a raw DynamoDB attribute map.
type Item = map[string]types.AttributeValue

// Key is a fully specified primary key.
type Key = map[string]types.AttributeValue

const (
	// MaxTransactItems is the store's bound on a single transactional
	// write. Operations that can exceed it must chunk; operations whose
	// atomicity is the point must fail whole.
	MaxTransactItems = 100

	// MaxBatchGetKeys is the store's bound on a single batch read.
	MaxBatchGetKeys = 100
)

// ErrConditionFailed is returned by Update when the conditional check
// rejects the write, i.e. the item does not exist. Stores translate it into
// their own not-found result.
var ErrConditionFailed = errors.New("conditional check failed")

// DynamoAPI mirrors the SDK v2 client methods the store client uses, so the
// real client and test doubles are interchangeable.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// TransactOp is one element of a transactional write: exactly one of Put or
// Delete is set.
type TransactOp struct {
	Table  string
	Put    Item
	Delete Key
}

// StoreClient is the capability surface the entity stores build on. The
// production implementation wraps a long-lived *dynamodb.Client, safe for
// concurrent use; tests substitute an in-memory double.
//
// Every method is a single remote call (plus result pagination). Failures
// surface as DATABASE errors distinct from absent results; no method
// retries.
type StoreClient interface {
	// Get returns the item at key, or nil when no item exists.
	Get(ctx context.Context, table string, key Key) (Item, error)
	Put(ctx context.Context, table string, item Item) error
	Delete(ctx context.Context, table string, key Key) error

	// QueryPartition range-queries one partition, optionally narrowed to a
	// sort-key prefix, following pagination to exhaustion. forward=false
	// reverses sort order (most recent first for timestamp sort keys).
	QueryPartition(ctx context.Context, table, pkAttr, pkValue, skAttr, skPrefix string, forward bool) ([]Item, error)

	// QueryIndex queries a secondary index by its partition key attribute.
	QueryIndex(ctx context.Context, table, index, keyAttr, keyValue string) ([]Item, error)

	// Scan reads the whole table, optionally filtered to items whose
	// filterAttr equals filterValue. Cost scales with table size; fallback
	// paths only.
	Scan(ctx context.Context, table, filterAttr, filterValue string) ([]Item, error)

	// Update sets the given attributes on the item at key and returns the
	// item's new state. With mustExist, a missing item fails the write
	// with ErrConditionFailed instead of upserting a stub.
	Update(ctx context.Context, table string, key Key, set Item, mustExist bool) (Item, error)

	// BatchGet resolves up to MaxBatchGetKeys full-key lookups in one
	// request. Missing keys are simply absent from the result.
	BatchGet(ctx context.Context, table string, keys []Key) ([]Item, error)

	// TransactWrite applies up to MaxTransactItems puts/deletes atomically:
	// all committed or none. Exceeding the bound is rejected whole with
	// TRANSACTION_TOO_LARGE, never truncated.
	TransactWrite(ctx context.Context, ops []TransactOp) error
}

// Client implements StoreClient against the AWS SDK.
type Client struct {
	api DynamoAPI
}

// NewClient wraps a DynamoDB client. The wrapper holds no per-request
// state; construct it once and share it.
func NewClient(api DynamoAPI) *Client {
	return &Client{api: api}
}

var _ StoreClient = (*Client)(nil)

func (c *Client) Get(ctx context.Context, table string, key Key) (Item, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func (c *Client) Put(ctx context.Context, table string, item Item) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return apperrors.NewDatabaseError("put", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, table string, key Key) error {
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return apperrors.NewDatabaseError("delete", err)
	}
	return nil
}

func (c *Client) QueryPartition(ctx context.Context, table, pkAttr, pkValue, skAttr, skPrefix string, forward bool) ([]Item, error) {
	keyCond := expression.Key(pkAttr).Equal(expression.Value(pkValue))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key(skAttr).BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(forward),
	}
	return c.queryAll(ctx, input, "query partition")
}

func (c *Client) QueryIndex(ctx context.Context, table, index, keyAttr, keyValue string) ([]Item, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(keyAttr).Equal(expression.Value(keyValue))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	return c.queryAll(ctx, input, "query index")
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func (c *Client) queryAll(ctx context.Context, input *dynamodb.QueryInput, op string) ([]Item, error) {
	var items []Item
	for {
		out, err := c.api.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError(op, err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (c *Client) Scan(ctx context.Context, table, filterAttr, filterValue string) ([]Item, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	if filterAttr != "" {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name(filterAttr).Equal(expression.Value(filterValue))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []Item
	for {
		out, err := c.api.Scan(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (c *Client) Update(ctx context.Context, table string, key Key, set Item, mustExist bool) (Item, error) {
	if len(set) == 0 {
		return nil, apperrors.NewValidationError("update requires at least one attribute")
	}

	// The update expression is assembled by hand rather than through the
	// expression builder because the values are already marshaled
	// attribute values.
	names := make(map[string]string, len(set)+1)
	values := make(Item, len(set))
	parts := make([]string, 0, len(set))
	for i, attr := range sortedAttrs(set) {
		namePH := fmt.Sprintf("#f%d", i)
		valuePH := fmt.Sprintf(":v%d", i)
		names[namePH] = attr
		values[valuePH] = set[attr]
		parts = append(parts, namePH+" = "+valuePH)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String("SET " + strings.Join(parts, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if mustExist {
		for attr := range key {
			names["#pk"] = attr
			input.ConditionExpression = aws.String("attribute_exists(#pk)")
			break
		}
	}

	out, err := c.api.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrConditionFailed
		}
		return nil, apperrors.NewDatabaseError("update", err)
	}
	return out.Attributes, nil
}

func (c *Client) BatchGet(ctx context.Context, table string, keys []Key) ([]Item, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > MaxBatchGetKeys {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch get of %d keys exceeds the %d key bound", len(keys), MaxBatchGetKeys))
	}

	request := map[string]types.KeysAndAttributes{
		table: {Keys: keys},
	}
	var items []Item
	for len(request) > 0 {
		out, err := c.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: request,
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("batch get", err)
		}
		items = append(items, out.Responses[table]...)
		request = out.UnprocessedKeys
	}
	return items, nil
}

func (c *Client) TransactWrite(ctx context.Context, ops []TransactOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > MaxTransactItems {
		return apperrors.NewTransactionTooLargeError(len(ops), MaxTransactItems)
	}

	writeItems := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		switch {
		case op.Put != nil:
			writeItems = append(writeItems, types.TransactWriteItem{
				Put: &types.Put{TableName: aws.String(op.Table), Item: op.Put},
			})
		case op.Delete != nil:
			writeItems = append(writeItems, types.TransactWriteItem{
				Delete: &types.Delete{TableName: aws.String(op.Table), Key: op.Delete},
			})
		default:
			return apperrors.NewValidationError("transact op has neither put nor delete")
		}
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writeItems,
	})
	if err != nil {
		return apperrors.NewDatabaseError("transact write", err)
	}
	return nil
}

// chunkOps splits ops into transaction-sized slices.
func chunkOps(ops []TransactOp, size int) [][]TransactOp {
	var chunks [][]TransactOp
	for start := 0; start < len(ops); start += size {
		end := start + size
		if end > len(ops) {
			end = len(ops)
		}
		chunks = append(chunks, ops[start:end])
	}
	return chunks
}

func sortedAttrs(set Item) []string {
	attrs := make([]string, 0, len(set))
	for attr := range set {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}
