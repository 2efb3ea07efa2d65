package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultshare/internal/common"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.lastPut = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, "vault")
	s.now = func() time.Time { return time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC) }

	path, err := s.Put(ctx, []byte("ciphertext"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^blobs/2025/3/7/[0-9a-f-]{36}$`), path)
	assert.Equal(t, "vault", aws.ToString(fake.lastPut.Bucket))
	assert.Equal(t, int64(10), aws.ToInt64(fake.lastPut.ContentLength))

	got, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), got)

	require.NoError(t, s.Delete(ctx, path))
	_, err = s.Get(ctx, path)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_ErrorsWrapUpstream(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.putErr = errors.New("put boom")
	fake.getErr = errors.New("get boom")
	fake.delErr = errors.New("del boom")
	s := newS3Store(fake, "vault")

	_, err := s.Put(ctx, []byte("x"))
	assert.ErrorIs(t, err, common.ErrUpstreamStorage)
	assert.Contains(t, err.Error(), "put boom")

	_, err = s.Get(ctx, "p")
	assert.ErrorIs(t, err, common.ErrUpstreamStorage)

	assert.ErrorIs(t, s.Delete(ctx, "p"), common.ErrUpstreamStorage)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	defer func() { loadDefaultAWSConfig = orig }()

	_, err := NewS3Store(context.Background(), S3Config{Bucket: "vault"})
	assert.ErrorIs(t, err, common.ErrUpstreamStorage)
}

func TestNewS3Store_AppliesEndpoint(t *testing.T) {
	var opts s3.Options
	origNew := newS3ClientFromConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return newFakeS3()
	}
	defer func() { newS3ClientFromConfig = origNew }()

	s, err := NewS3Store(context.Background(), S3Config{
		User: "u", Password: "p", Bucket: "vault", Region: "us-east-1", BaseEndpoint: "http://127.0.0.1:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "vault", s.bucket)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	p, err := m.Put(ctx, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(ctx, p)
	require.NoError(t, err)
	got[0] = 'z'
	again, _ := m.Get(ctx, p)
	assert.Equal(t, []byte("abc"), again, "Get returns a copy")

	m.Overwrite(p, []byte("xyz"))
	again, _ = m.Get(ctx, p)
	assert.Equal(t, []byte("xyz"), again)

	require.NoError(t, m.Delete(ctx, p))
	_, err = m.Get(ctx, p)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
