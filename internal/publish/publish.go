// Package publish uploads job artifacts to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures an S3Publisher
type Options struct {
	Bucket   string
	Prefix   string
	Endpoint string
	// Root is the local directory object keys are made relative to.
	Root string
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads created files to a bucket
type S3Publisher struct {
	client ObjectPutter
	opts   Options
}

// New creates a publisher from the default AWS credential chain. A custom
// endpoint (R2, MinIO) switches the client to path-style addressing.
func New(ctx context.Context, opts Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion("auto"))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, opts), nil
}

// NewWithClient creates a publisher around an existing client
func NewWithClient(client ObjectPutter, opts Options) *S3Publisher {
	return &S3Publisher{client: client, opts: opts}
}

// Publish uploads each file and returns the object keys in the same order.
// It stops at the first failure.
func (p *S3Publisher) Publish(ctx context.Context, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, filePath := range paths {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return keys, fmt.Errorf("failed to read %s: %w", filePath, err)
		}

		key := ObjectKey(p.opts.Prefix, p.opts.Root, filePath)
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.opts.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(ContentType(filePath)),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ObjectKey maps a local file to its key: the path relative to root, with
// forward slashes, under prefix. Files outside root keep only their base name.
func ObjectKey(prefix, root, filePath string) string {
	rel := filepath.Base(filePath)
	if root != "" {
		if r, err := filepath.Rel(root, filePath); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

var contentTypes = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".json": "application/json",
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
}

// ContentType returns the upload content type for a file extension
func ContentType(filePath string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filePath))]; ok {
		return ct
	}
	return "application/octet-stream"
}
