package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/blobstore"
)

// mockDDBClient is an in-memory DynamoDB table keyed by (base_uri, version).
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	return item[name].(*types.AttributeValueMemberS).Value
}

func attrN(item map[string]types.AttributeValue, name string) uint64 {
	v, _ := strconv.ParseUint(item[name].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (m *mockDDBClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s:%d", attrS(in.Item, "base_uri"), attrN(in.Item, "version"))
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := in.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if attrS(item, "base_uri") == uri {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		return int(attrN(b, "version")) - int(attrN(a, "version"))
	})
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func readCurrent(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()
	blob, err := store.Open(context.Background(), CurrentName)
	require.NoError(t, err)
	defer blob.Close()
	b, err := blobstore.ReadAll(context.Background(), blob)
	require.NoError(t, err)
	return string(b)
}

func TestDDBCommitStore_Commits(t *testing.T) {
	ctx := context.Background()
	store := NewDDBCommitStore(blobstore.NewMemoryStore(), newMockDDBClient(), "leadrec-commits", "s3://bucket/test/")

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = store.Open(ctx, CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(ctx, CurrentName, fmt.Appendf(nil, "models/%02d.lrm", i)))
	}
	assert.Equal(t, "models/12.lrm", readCurrent(t, store), "versions compare numerically")

	v, err = store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), v)
}

func TestDDBCommitStore_PassThrough(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := NewDDBCommitStore(inner, newMockDDBClient(), "t", "s3://bucket/")

	require.NoError(t, store.Put(ctx, "models/a.lrm", []byte("artifact")))
	names, err := inner.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/a.lrm"}, names, "CURRENT never reaches the wrapped store")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("models/a.lrm")))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/a.lrm"}, names)
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := NewDDBCommitStore(blobstore.NewMemoryStore(), newMockDDBClient(), "t", "s3://bucket/")
	require.NoError(t, store.Put(ctx, CurrentName, []byte("models/0.lrm")))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, fmt.Appendf(nil, "models/%d.lrm", i+1))
			if err != nil && !errors.Is(err, ErrConcurrentModification) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Positive(t, successes)
	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1+successes), v, "each success owns exactly one version")
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	a := NewDDBCommitStore(blobstore.NewMemoryStore(), ddb, "t", "s3://bucket-a/")
	b := NewDDBCommitStore(blobstore.NewMemoryStore(), ddb, "t", "s3://bucket-b/")

	require.NoError(t, a.Put(ctx, CurrentName, []byte("models/a.lrm")))
	require.NoError(t, b.Put(ctx, CurrentName, []byte("models/b.lrm")))

	assert.Equal(t, "models/a.lrm", readCurrent(t, a))
	assert.Equal(t, "models/b.lrm", readCurrent(t, b))
}

func TestCurrentBlob_Reads(t *testing.T) {
	ctx := context.Background()
	b := &currentBlob{content: []byte("models/a.lrm")}

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 10)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = b.ReadAt(ctx, buf, 12)
	assert.ErrorIs(t, err, io.EOF)

	r, err := b.ReadRange(ctx, 7, 1)
	require.NoError(t, err)
	got, _ := io.ReadAll(r)
	assert.Equal(t, "a", string(got))

	_, err = b.ReadRange(ctx, 13, 1)
	assert.ErrorIs(t, err, io.EOF)
}
