package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps all collections in one table keyed by
// PK = collection, SK = id, with the JSON body in a string attribute.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// NewDynamoDBClient builds a client from the default AWS credential chain.
// A non-empty endpoint points it at DynamoDB Local.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewDynamoStore creates a store over an existing table
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func dynamoKey(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: collection},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

type dynamoItem struct {
	id        string
	body      string
	createdAt int64
}

func parseDynamoItem(item map[string]types.AttributeValue) (dynamoItem, error) {
	var out dynamoItem

	sk, ok := item["SK"].(*types.AttributeValueMemberS)
	if !ok {
		return out, fmt.Errorf("item has no SK")
	}
	body, ok := item["body"].(*types.AttributeValueMemberS)
	if !ok {
		return out, fmt.Errorf("item %s has no body", sk.Value)
	}
	out.id = sk.Value
	out.body = body.Value

	if created, ok := item["createdAt"].(*types.AttributeValueMemberN); ok {
		out.createdAt, _ = strconv.ParseInt(created.Value, 10, 64)
	}
	return out, nil
}

// List queries the collection partition and orders it by creation time
func (s *DynamoStore) List(ctx context.Context, collection string) ([]Document, error) {
	var items []dynamoItem
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: collection},
			},
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}

		for _, raw := range out.Items {
			item, err := parseDynamoItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].createdAt != items[j].createdAt {
			return items[i].createdAt < items[j].createdAt
		}
		return items[i].id < items[j].id
	})

	docs := make([]Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, Document{ID: item.id, Body: []byte(item.body)})
	}
	return docs, nil
}

// Get retrieves a document by id
func (s *DynamoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	item, err := s.getItem(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: item.id, Body: []byte(item.body)}, nil
}

func (s *DynamoStore) getItem(ctx context.Context, collection, id string) (dynamoItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            dynamoKey(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return dynamoItem{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if len(out.Item) == 0 {
		return dynamoItem{}, ErrNotFound
	}
	return parseDynamoItem(out.Item)
}

// Create stores a new document under a random id
func (s *DynamoStore) Create(ctx context.Context, collection string, body []byte) (string, error) {
	id := uuid.New().String()
	if err := s.put(ctx, collection, dynamoItem{id: id, body: string(body), createdAt: s.now().UnixNano()}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DynamoStore) put(ctx context.Context, collection string, item dynamoItem) error {
	av := dynamoKey(collection, item.id)
	av["body"] = &types.AttributeValueMemberS{Value: item.body}
	av["createdAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(item.createdAt, 10)}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, item.id, err)
	}
	return nil
}

// Update merges patch into an existing document
func (s *DynamoStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	item, err := s.getItem(ctx, collection, id)
	if err != nil {
		return err
	}

	merged, err := mergePatch([]byte(item.body), patch)
	if err != nil {
		return err
	}
	item.body = string(merged)
	return s.put(ctx, collection, item)
}

// Delete removes a document
func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       dynamoKey(collection, id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close is a no-op; the AWS client holds no connection to release
func (s *DynamoStore) Close() error {
	return nil
}
