package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/blobstore"
)

func TestStore_Open(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
			return *in.Bucket == "test-bucket" && *in.Key == "prefix/models/missing.lrm"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "models/missing.lrm")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
			return *in.Key == "prefix/models/a.lrm"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(100)}, nil).Once()

		blob, err := store.Open(context.Background(), "models/a.lrm")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	client.AssertExpectations(t)
}

func TestStore_Keys(t *testing.T) {
	tests := []struct {
		root string
		name string
		want string
	}{
		{"", "CURRENT", "CURRENT"},
		{"leadrec", "CURRENT", "leadrec/CURRENT"},
		{"leadrec/", "models/a.lrm", "leadrec/models/a.lrm"},
		{"/a/b/", "x", "a/b/x"},
	}
	for _, tt := range tests {
		s := NewStore(nil, "b", tt.root)
		assert.Equal(t, tt.want, s.key(tt.name))
		assert.Equal(t, tt.name, s.name(tt.want))
	}
}

func TestStore_Delete(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "prefix")

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Bucket == "test-bucket" && *in.Key == "prefix/del"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Delete(context.Background(), "del"))
	client.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Key == "CURRENT" && string(body) == "models/a.lrm" &&
			aws.ToInt64(in.ContentLength) == 12 && aws.ToString(in.ChecksumCRC32C) != ""
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "CURRENT", []byte("models/a.lrm")))
	client.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "prefix/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Bucket == "test-bucket" && *in.Prefix == "prefix/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/models/b.lrm")},
			{Key: aws.String("prefix/CURRENT")},
		},
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CURRENT", "models/b.lrm"}, names)
}

func TestStore_List_Pagination(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "prefix")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && *in.Prefix == "prefix/models/"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("prefix/models/2.lrm")}},
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken != nil && *in.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("prefix/models/1.lrm")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "models/")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/1.lrm", "models/2.lrm"}, names)
}

func TestBlob_ReadAt(t *testing.T) {
	client := new(MockS3Client)
	blob := &s3Blob{client: client, bucket: "b", key: "k", size: 10}
	ctx := context.Background()

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("89"))}, nil).Once()

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	n, err = blob.ReadAt(ctx, buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	client.AssertExpectations(t)
}

func TestBlob_ReadRange(t *testing.T) {
	client := new(MockS3Client)
	blob := &s3Blob{client: client, bucket: "b", key: "k", size: 10}
	ctx := context.Background()

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Range == "bytes=2-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("23456789"))}, nil).Once()

	r, err := blob.ReadRange(ctx, 2, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "23456789", string(got))

	r, err = blob.ReadRange(ctx, 10, 5)
	require.NoError(t, err)
	got, _ = io.ReadAll(r)
	assert.Empty(t, got)

	_, err = blob.ReadRange(ctx, 11, 5)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStore_Create(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "test-bucket", "prefix")

	var uploaded string
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "test-bucket" && *in.Key == "prefix/models/new.lrm"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		b, _ := io.ReadAll(in.Body)
		uploaded = string(b)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(context.Background(), "models/new.lrm")
	require.NoError(t, err)
	_, err = w.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second Close returns the first result")

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, "content", uploaded)
}
