package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const storedAtMetadata = "Stored-At"

// S3Config holds configuration for the S3 cache
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
	Prefix          string
}

// S3Cache stores one object per key in an S3-compatible bucket
type S3Cache struct {
	client s3iface.S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Cache creates an S3 cache from static credentials
func NewS3Cache(config *S3Config) (*S3Cache, error) {
	if config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	awsConfig := &aws.Config{
		Region:           aws.String(config.Region),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return NewS3CacheWithClient(s3.New(sess), config.Bucket, config.Prefix), nil
}

// NewS3CacheWithClient creates an S3 cache around an existing client
func NewS3CacheWithClient(client s3iface.S3API, bucket, prefix string) *S3Cache {
	return &S3Cache{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

func (c *S3Cache) objectKey(key string) string {
	name := strings.ReplaceAll(key, ":", "/") + ".json"
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// Get downloads the object stored under key
func (c *S3Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	out, err := c.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return Entry{}, false, nil
		}
		return Entry{}, false, &Error{Op: "get", Key: key, Err: err}
	}
	defer out.Body.Close()

	value, err := io.ReadAll(out.Body)
	if err != nil {
		return Entry{}, false, &Error{Op: "get", Key: key, Err: err}
	}

	entry := Entry{Value: value}
	if raw, ok := out.Metadata[storedAtMetadata]; ok && raw != nil {
		if t, err := time.Parse(time.RFC3339Nano, *raw); err == nil {
			entry.StoredAt = t
		}
	}
	if entry.StoredAt.IsZero() && out.LastModified != nil {
		entry.StoredAt = *out.LastModified
	}
	return entry, true, nil
}

// Set uploads value under key
func (c *S3Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.objectKey(key)),
		Body:          bytes.NewReader(value),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(value))),
		Metadata: map[string]*string{
			storedAtMetadata: aws.String(c.now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}
