package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/syssam/norm"
)

// Attribute names of the DynamoDB cache table. The table must have the
// string partition key "key"; enable DynamoDB TTL on "expires_at" to have
// expired items removed server-side.
const (
	AttrKey     = "key"
	AttrValue   = "value"
	AttrExpires = "expires_at"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoDB.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBOptions configures NewDynamoDB.
type DynamoDBOptions struct {
	Region string
	Table  string
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string
	// AccessKeyID and SecretAccessKey override the default credential
	// chain when both are set.
	AccessKeyID     string
	SecretAccessKey string
}

// DynamoDB stores entries as items of one table.
type DynamoDB struct {
	client DynamoDBAPI
	table  string
	now    func() time.Time
}

// NewDynamoDB loads the AWS configuration and returns a cache over the
// configured table.
func NewDynamoDB(ctx context.Context, opts DynamoDBOptions) (*DynamoDB, error) {
	if opts.Region == "" {
		return nil, errors.New("cache: dynamodb region is required")
	}
	if opts.Table == "" {
		return nil, errors.New("cache: dynamodb table is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("cache: load aws config: %w", err)
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	var clientOpts []func(*dynamodb.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	return NewDynamoDBFromClient(dynamodb.NewFromConfig(cfg, clientOpts...), opts.Table), nil
}

// NewDynamoDBFromClient wraps an existing client.
func NewDynamoDBFromClient(client DynamoDBAPI, table string) *DynamoDB {
	return &DynamoDB{client: client, table: table, now: time.Now}
}

func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrKey: &types.AttributeValueMemberS{Value: key},
	}
}

// Get returns the value stored under key, or nil if the item is missing
// or expired. DynamoDB removes expired items lazily, so the expiry is
// checked here too.
func (d *DynamoDB) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: dynamodb get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	if n, ok := out.Item[AttrExpires].(*types.AttributeValueMemberN); ok {
		exp, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache: dynamodb get %s: bad %s: %w", key, AttrExpires, err)
		}
		if d.now().Unix() >= exp {
			return nil, nil
		}
	}
	b, ok := out.Item[AttrValue].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("cache: dynamodb get %s: missing %s", key, AttrValue)
	}
	return b.Value, nil
}

// Set stores value under key. A positive ttl is rounded up to whole
// seconds.
func (d *DynamoDB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := keyOf(key)
	item[AttrValue] = &types.AttributeValueMemberB{Value: value}
	if ttl > 0 {
		exp := d.now().Add(ttl + time.Second - 1).Unix()
		item[AttrExpires] = &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)}
	}
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("cache: dynamodb put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (d *DynamoDB) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       keyOf(key),
	})
	if err != nil {
		return fmt.Errorf("cache: dynamodb delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix scans the table for keys starting with prefix and deletes
// them one by one.
func (d *DynamoDB) DeletePrefix(ctx context.Context, prefix string) error {
	in := &dynamodb.ScanInput{
		TableName:                aws.String(d.table),
		ProjectionExpression:     aws.String("#k"),
		FilterExpression:         aws.String("begins_with(#k, :p)"),
		ExpressionAttributeNames: map[string]string{"#k": AttrKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: prefix},
		},
	}
	for {
		out, err := d.client.Scan(ctx, in)
		if err != nil {
			return fmt.Errorf("cache: dynamodb scan %s: %w", prefix, err)
		}
		for _, item := range out.Items {
			k, ok := item[AttrKey].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if err := d.Delete(ctx, k.Value); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Clear removes every item written by norm.
func (d *DynamoDB) Clear(ctx context.Context) error {
	return d.DeletePrefix(ctx, "norm:")
}

var (
	_ norm.Cache  = (*DynamoDB)(nil)
	_ DynamoDBAPI = (*dynamodb.Client)(nil)
)
