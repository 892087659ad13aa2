// Package s3store implements the objectstore contract over an S3-compatible
// backend (minio in development). Keys are derived from the content digest,
// which makes the bucket content-addressed: identical bytes land on the
// same key, and re-uploads are idempotent. Pinning maps to object tagging.
package s3store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/provenia/provenia/internal/objectstore"
)

const keyPrefix = "objects/"

// pinTagKey marks must-retain objects; bucket lifecycle rules are expected
// to only expire untagged keys.
const pinTagKey = "pinned"

// api is the slice of the S3 client the store uses. *s3.Client satisfies it.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObjectTagging(ctx context.Context, in *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	DeleteObjectTagging(ctx context.Context, in *s3.DeleteObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectTaggingOutput, error)
}

// Config carries the S3 connection settings.
type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	RootUser     string
	RootPassword string
	Timeout      time.Duration
}

type Store struct {
	client  api
	bucket  string
	timeout time.Duration
}

// New dials the configured S3 endpoint and returns a content-addressed
// store over the given bucket.
func New(ctx context.Context, c Config) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.RootUser,
			c.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Store{client: client, bucket: c.Bucket, timeout: timeout}, nil
}

// Add digests r, uploads the bytes under objects/<digest> and returns the
// key as the content id. Seekable readers are digested in place; anything
// else is buffered.
func (s *Store) Add(ctx context.Context, r io.Reader, name string) (*objectstore.StoredObject, error) {
	body, digest, size, err := prepare(r)
	if err != nil {
		return nil, fmt.Errorf("s3 add: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := keyPrefix + digest
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 add: %w", err)
	}

	return &objectstore.StoredObject{ContentID: key, SizeBytes: size}, nil
}

func (s *Store) Cat(ctx context.Context, contentID string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(contentID),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 cat: %w", err)
	}
	return out.Body, nil
}

func (s *Store) Pin(ctx context.Context, contentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(contentID),
		Tagging: &types.Tagging{
			TagSet: []types.Tag{{Key: aws.String(pinTagKey), Value: aws.String("true")}},
		},
	})
	if err != nil {
		return fmt.Errorf("s3 pin: %w", err)
	}
	return nil
}

func (s *Store) Unpin(ctx context.Context, contentID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObjectTagging(ctx, &s3.DeleteObjectTaggingInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(contentID),
	})
	if err != nil {
		return fmt.Errorf("s3 unpin: %w", err)
	}
	return nil
}

// prepare returns a reader positioned at the start of the payload together
// with its hex digest and size.
func prepare(r io.Reader) (io.Reader, string, int64, error) {
	h := sha256.New()

	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := io.Copy(h, rs)
		if err != nil {
			return nil, "", 0, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, "", 0, err
		}
		return rs, hex.EncodeToString(h.Sum(nil)), size, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", 0, err
	}
	h.Write(data)
	return bytes.NewReader(data), hex.EncodeToString(h.Sum(nil)), int64(len(data)), nil
}
