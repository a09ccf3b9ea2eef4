package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixDevice = "DEVICE#"
	skPrefixKey    = "KEY#"
	ttlDuration    = 90 * 24 * time.Hour // 90-day TTL, refreshed on every write
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoKV.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoKV keeps one device's keys in a single DynamoDB partition.
type DynamoKV struct {
	api       dynamodbAPI
	tableName string
	deviceID  string
	now       func() time.Time
}

// NewDynamoKV creates a DynamoDB-backed KV for the given device.
func NewDynamoKV(api dynamodbAPI, tableName, deviceID string) (*DynamoKV, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(deviceID) == "" {
		return nil, errors.New("repository: device id must not be empty")
	}
	return &DynamoKV{api: api, tableName: tableName, deviceID: deviceID, now: time.Now}, nil
}

// devicePK returns the partition key for a device.
func devicePK(deviceID string) string {
	return pkPrefixDevice + deviceID
}

// keySK returns the sort key for a stored key.
func keySK(key string) string {
	return skPrefixKey + key
}

func (d *DynamoKV) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: devicePK(d.deviceID)},
		"SK": &types.AttributeValueMemberS{Value: keySK(key)},
	}
}

// Get reads a key with a consistent read so a write is visible immediately.
func (d *DynamoKV) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Get %q: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	value, err := strAttr(out.Item, "value")
	if err != nil {
		return nil, fmt.Errorf("repository: Get %q decode: %w", key, err)
	}
	return []byte(value), nil
}

// Put overwrites the stored value; last write wins.
func (d *DynamoKV) Put(ctx context.Context, key string, value []byte) error {
	item := d.itemKey(key)
	item["value"] = &types.AttributeValueMemberS{Value: string(value)}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: d.now().UTC().Format(time.RFC3339)}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", d.now().Add(ttlDuration).Unix())}

	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: Put %q: %w", key, err)
	}
	return nil
}

// Delete removes the key; deleting a missing key is not an error.
func (d *DynamoKV) Delete(ctx context.Context, key string) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("repository: Delete %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; the SDK client owns no resources that need releasing.
func (d *DynamoKV) Close() error {
	return nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
