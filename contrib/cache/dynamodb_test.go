package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB implements DynamoDBAPI over a map of items. Scan pages hold
// at most one item.
type fakeDynamoDB struct {
	items map[string]map[string]types.AttributeValue
	fail  error
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: map[string]map[string]types.AttributeValue{}}
}

func keyString(key map[string]types.AttributeValue) string {
	return key[AttrKey].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamoDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyString(in.Key)]}, nil
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.items[keyString(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyString(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	prefix := in.ExpressionAttributeValues[":p"].(*types.AttributeValueMemberS).Value
	var keys []string
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	page := map[string]types.AttributeValue{AttrKey: &types.AttributeValueMemberS{Value: keys[0]}}
	out := &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{page}}
	if len(keys) > 1 {
		out.LastEvaluatedKey = page
	}
	return out, nil
}

func TestDynamoDB(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeDynamoDB()
	d := NewDynamoDBFromClient(fake, "norm_cache")
	now := time.Unix(1000, 0)
	d.now = func() time.Time { return now }

	v, err := d.Get(ctx, "norm:Person:1")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, d.Set(ctx, "norm:Person:1", []byte("a"), 1500*time.Millisecond))
	exp := fake.items["norm:Person:1"][AttrExpires].(*types.AttributeValueMemberN)
	assert.Equal(t, "1002", exp.Value)

	v, err = d.Get(ctx, "norm:Person:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	now = now.Add(2 * time.Second)
	v, err = d.Get(ctx, "norm:Person:1")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, d.Set(ctx, "norm:Person:2", []byte("b"), 0))
	require.NoError(t, d.Set(ctx, "norm:Person:3", []byte("c"), 0))
	require.NoError(t, d.Set(ctx, "norm:City:1", []byte("d"), 0))
	_, ok := fake.items["norm:Person:2"][AttrExpires]
	assert.False(t, ok)

	require.NoError(t, d.DeletePrefix(ctx, "norm:Person:"))
	assert.Len(t, fake.items, 1)
	require.NoError(t, d.Delete(ctx, "norm:City:1"))
	assert.Empty(t, fake.items)

	require.NoError(t, d.Set(ctx, "norm:City:1", []byte("d"), 0))
	require.NoError(t, d.Clear(ctx))
	assert.Empty(t, fake.items)
}

func TestDynamoDBErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeDynamoDB()
	d := NewDynamoDBFromClient(fake, "norm_cache")

	fake.items["norm:Person:1"] = map[string]types.AttributeValue{
		AttrKey: &types.AttributeValueMemberS{Value: "norm:Person:1"},
	}
	_, err := d.Get(ctx, "norm:Person:1")
	assert.ErrorContains(t, err, "missing value")

	throttled := errors.New("throttled")
	fake.fail = throttled
	_, err = d.Get(ctx, "norm:Person:1")
	assert.ErrorIs(t, err, throttled)
	assert.ErrorIs(t, d.Set(ctx, "norm:Person:1", nil, 0), throttled)

	_, err = NewDynamoDB(ctx, DynamoDBOptions{Table: "t"})
	assert.ErrorContains(t, err, "region is required")
	_, err = NewDynamoDB(ctx, DynamoDBOptions{Region: "us-east-1"})
	assert.ErrorContains(t, err, "table is required")
}
