package mirror_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/mirror"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3{objects: map[string][]byte{"assets/uploads/a.png": []byte("png")}}
	store := mirror.NewS3Store(api, "assets")

	t.Run("get", func(t *testing.T) {
		body, err := store.Get(ctx, "uploads/a.png")
		require.NoError(t, err)
		defer func() { _ = body.Close() }()

		b, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "png", string(b))
	})

	t.Run("missing key maps to not found", func(t *testing.T) {
		_, err := store.Get(ctx, "uploads/missing.png")
		assert.ErrorIs(t, err, closureme.ErrNotFound)
	})

	t.Run("head style not found", func(t *testing.T) {
		store := mirror.NewS3Store(&fakeS3{getErr: &smithy.GenericAPIError{Code: "NotFound"}}, "assets")
		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, closureme.ErrNotFound)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		store := mirror.NewS3Store(&fakeS3{getErr: &smithy.GenericAPIError{Code: "AccessDenied"}}, "assets")
		_, err := store.Get(ctx, "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, closureme.ErrNotFound)

		var apiErr smithy.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "AccessDenied", apiErr.ErrorCode())
	})

	t.Run("put", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "fbx/temp/a_init.fbx", bytes.NewReader([]byte("fbx")), 3))
		require.Len(t, api.puts, 1)
		assert.Equal(t, "assets", aws.ToString(api.puts[0].Bucket))
		assert.Equal(t, int64(3), aws.ToInt64(api.puts[0].ContentLength))
		assert.Equal(t, []byte("fbx"), api.objects["assets/fbx/temp/a_init.fbx"])
	})
}

func TestNewS3Client(t *testing.T) {
	ctx := context.Background()

	t.Run("custom endpoint uses path style", func(t *testing.T) {
		client, err := mirror.NewS3Client(ctx, mirror.S3Options{
			Region:    "ap-east-2",
			Endpoint:  "http://localhost:9000",
			AccessKey: "AKIATEST",
			SecretKey: "secret",
		})
		require.NoError(t, err)

		opts := client.Options()
		assert.Equal(t, "ap-east-2", opts.Region)
		assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
		assert.True(t, opts.UsePathStyle)

		creds, err := opts.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "AKIATEST", creds.AccessKeyID)
	})

	t.Run("aws endpoint", func(t *testing.T) {
		client, err := mirror.NewS3Client(ctx, mirror.S3Options{Region: "us-east-1"})
		require.NoError(t, err)
		assert.Nil(t, client.Options().BaseEndpoint)
		assert.False(t, client.Options().UsePathStyle)
	})
}
