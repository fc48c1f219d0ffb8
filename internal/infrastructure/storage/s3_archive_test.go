package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts      []*s3.PutObjectInput
	bodies    [][]byte
	putErr    error
	headErr   error
	createErr error
	created   int
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created++
	return &s3.CreateBucketOutput{}, f.createErr
}

var fixedID = uuid.MustParse("8f0c1b8e-2f7a-4d8e-9a51-1c3f6f6b2a10")

func newTestArchive(client s3API) *S3Archive {
	a := newS3Archive(client, "uploads", "/imports/", WithClock(func() time.Time {
		return time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	}))
	a.newID = func() uuid.UUID { return fixedID }
	return a
}

func TestS3Archive_Key(t *testing.T) {
	a := newTestArchive(&fakeS3{})

	assert.Equal(t, "imports/2024/03/"+fixedID.String()+"-orders_march.xlsx", a.Key("orders march.xlsx"))
	assert.Equal(t, "imports/2024/03/"+fixedID.String()+"-export.csv", a.Key(`C:\Users\ops\export.csv`))
	assert.Equal(t, "imports/2024/03/"+fixedID.String()+"-upload", a.Key(""))
}

func TestS3Archive_Archive(t *testing.T) {
	client := &fakeS3{}
	a := newTestArchive(client)

	localPath := filepath.Join(t.TempDir(), "tmp-123")
	require.NoError(t, os.WriteFile(localPath, []byte("Order ID,Status\n1,Completed\n"), 0o600))

	key, err := a.Archive(context.Background(), "shopee.csv", localPath)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, key, aws.ToString(put.Key))
	assert.Equal(t, "uploads", aws.ToString(put.Bucket))
	assert.Equal(t, "text/csv", aws.ToString(put.ContentType))
	assert.EqualValues(t, 28, aws.ToInt64(put.ContentLength))
	assert.Equal(t, "Order ID,Status\n1,Completed\n", string(client.bodies[0]))
}

func TestS3Archive_ArchiveErrors(t *testing.T) {
	_, err := newTestArchive(&fakeS3{}).Archive(context.Background(), "a.xlsx", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	localPath := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(localPath, []byte("x"), 0o600))
	_, err = newTestArchive(&fakeS3{putErr: errors.New("denied")}).Archive(context.Background(), "a.xlsx", localPath)
	assert.ErrorContains(t, err, "denied")
}

func TestS3Archive_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	existing := &fakeS3{}
	require.NoError(t, newTestArchive(existing).EnsureBucket(ctx))
	assert.Zero(t, existing.created)

	missing := &fakeS3{headErr: &types.NotFound{}}
	require.NoError(t, newTestArchive(missing).EnsureBucket(ctx))
	assert.Equal(t, 1, missing.created)

	raced := &fakeS3{headErr: &types.NoSuchBucket{}, createErr: &types.BucketAlreadyOwnedByYou{}}
	require.NoError(t, newTestArchive(raced).EnsureBucket(ctx))

	broken := &fakeS3{headErr: errors.New("forbidden")}
	assert.Error(t, newTestArchive(broken).EnsureBucket(ctx))
}

func TestNewS3Archive_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Archive(ctx, config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3Archive(ctx, config.StorageConfig{Bucket: "b"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewS3Archive(ctx, config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "http://"})
	assert.ErrorContains(t, err, "invalid storage endpoint")

	a, err := NewS3Archive(ctx, config.StorageConfig{
		Bucket: "b", AccessKey: "k", SecretKey: "s",
		Endpoint: "minio:9000", UsePathStyle: true, Prefix: "imports",
	})
	require.NoError(t, err)
	assert.Equal(t, "imports", a.prefix)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)
}

func TestNoopArchive(t *testing.T) {
	key, err := NoopArchive{}.Archive(context.Background(), "a.xlsx", "/nowhere")
	require.NoError(t, err)
	assert.Empty(t, key)
}
