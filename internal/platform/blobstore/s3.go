package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the subset of *s3.Client used by S3BlobStore.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Object user metadata keys.
const (
	metaHash    = "sha256"
	metaStudent = "student-id"
)

// S3BlobStore keeps each blob at {prefix}/{owner}/{id}/{file name}. The
// owner and id segments make ownership checks a key prefix match.
type S3BlobStore struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3BlobStore loads the default AWS credential chain for region.
func NewS3BlobStore(ctx context.Context, bucket, region, prefix string) (*S3BlobStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3BlobStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewS3BlobStoreWithClient(client S3API, bucket, prefix string) *S3BlobStore {
	return &S3BlobStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

func (s *S3BlobStore) ownerPrefix(ownerID string) string {
	return path.Join(s.prefix, ownerID) + "/"
}

func (s *S3BlobStore) blobPrefix(ownerID, id string) string {
	return path.Join(s.prefix, ownerID, id) + "/"
}

// parseKey splits a key below ownerPrefix into id and file name.
func parseKey(ownerPrefix, key string) (id, name string, ok bool) {
	rest, found := strings.CutPrefix(key, ownerPrefix)
	if !found {
		return "", "", false
	}
	id, name, ok = strings.Cut(rest, "/")
	return id, name, ok && id != "" && name != ""
}

func (s *S3BlobStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if err := checkMeta(meta); err != nil {
		return nil, err
	}
	data, err := readLimited(content)
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = s.now().UTC()

	userMeta := map[string]string{metaHash: meta.Hash}
	if meta.StudentID != "" {
		userMeta[metaStudent] = meta.StudentID
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.blobPrefix(meta.OwnerID, meta.ID) + meta.FileName),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(meta.ContentType),
		ContentLength: aws.Int64(meta.Size),
		Metadata:      userMeta,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	out := meta
	return &out, nil
}

// find resolves id to its object key within the owner's prefix.
func (s *S3BlobStore) find(ctx context.Context, ownerID, id string) (string, error) {
	if ownerID == "" || id == "" || strings.Contains(id, "/") {
		return "", ErrBlobNotFound
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.blobPrefix(ownerID, id)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("list objects: %w", err)
	}
	if len(out.Contents) == 0 {
		return "", ErrBlobNotFound
	}
	return aws.ToString(out.Contents[0].Key), nil
}

func (s *S3BlobStore) Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *BlobMetadata, error) {
	key, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("get object: %w", err)
	}

	_, name, _ := parseKey(s.ownerPrefix(ownerID), key)
	meta := &BlobMetadata{
		ID:          id,
		OwnerID:     ownerID,
		StudentID:   out.Metadata[metaStudent],
		FileName:    name,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		Hash:        out.Metadata[metaHash],
		CreatedAt:   aws.ToTime(out.LastModified),
	}
	return out.Body, meta, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, ownerID, id string) error {
	key, err := s.find(ctx, ownerID, id)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// List walks every page under the owner's prefix. Listing does not return
// user metadata, so StudentID and Hash are only filled in by Download.
func (s *S3BlobStore) List(ctx context.Context, ownerID string, limit, offset int) ([]*BlobMetadata, int, error) {
	if ownerID == "" {
		return nil, 0, ErrMissingOwner
	}
	prefix := s.ownerPrefix(ownerID)

	matched := []*BlobMetadata{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			id, name, ok := parseKey(prefix, aws.ToString(obj.Key))
			if !ok {
				continue
			}
			matched = append(matched, &BlobMetadata{
				ID:        id,
				OwnerID:   ownerID,
				FileName:  name,
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	newestFirst(matched)
	return page(matched, limit, offset), len(matched), nil
}
