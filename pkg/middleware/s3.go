package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lumen-dev/lumen/pkg/store"
)

// S3Client is the subset of the AWS S3 client used by S3Snapshot.
// *s3.Client satisfies it.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the S3 snapshot middleware.
type S3Config struct {
	// KeyFunc derives the object key from the snapshotted state.
	// Default: <prefix>/state.json, overwritten on every change.
	KeyFunc func(state store.State) string
}

// S3Option configures the S3 snapshot middleware.
type S3Option func(*S3Config)

// WithKeyFunc sets the object key derivation.
func WithKeyFunc(fn func(state store.State) string) S3Option {
	return func(c *S3Config) {
		c.KeyFunc = fn
	}
}

// S3Snapshot returns middleware that persists a JSON snapshot of the
// post-update state to S3 on every change.
//
// State values must be JSON-encodable; a value that is not (a func, a
// channel) fails the run. Snapshots from overlapping runs may land out of
// order -- the pipeline gives no cross-run ordering guarantee -- so keys
// derived from the state (for example a version value) are preferable to a
// single overwritten object when ordering matters.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	client := s3.NewFromConfig(cfg)
//	middleware.Apply(s, middleware.S3Snapshot(client, "my-bucket", "snapshots/"))
func S3Snapshot(client S3Client, bucket, prefix string, opts ...S3Option) Middleware {
	config := S3Config{
		KeyFunc: func(store.State) string {
			return path.Join(prefix, "state.json")
		},
	}
	for _, opt := range opts {
		opt(&config)
	}

	return func(ctx context.Context, state store.State) error {
		body, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("lumen: encode snapshot: %w", err)
		}

		key := config.KeyFunc(state)
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("lumen: s3 snapshot upload: %w", err)
		}
		return nil
	}
}
