package sync

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectWriter is the part of the S3 API the destination uses.
type objectWriter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Destination keeps the latest export under <prefix>/latest/ and one
// copy per day under <prefix>/daily/YYYY/MM/DD/, named after the parts.
type S3Destination struct {
	api    objectWriter
	bucket string
	prefix string
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*s3.Options)
	if endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Destination{api: s3.NewFromConfig(cfg, opts...), bucket: bucket, prefix: prefix}, nil
}

func (d *S3Destination) Name() string { return "s3://" + path.Join(d.bucket, d.prefix) }

// Publish uploads every part twice: as the latest copy and as the copy of
// the day the snapshot was taken. Objects carry the digest and the issue
// count as metadata.
func (d *S3Destination) Publish(ctx context.Context, e *Export) error {
	meta := map[string]string{
		"facets-digest":      e.Digest,
		"facets-issue-count": strconv.Itoa(e.IssueCount),
		"facets-taken-at":    e.TakenAt.Format(time.RFC3339),
	}
	for _, key := range d.keys(e) {
		for _, p := range e.Parts {
			_, err := d.api.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(d.bucket),
				Key:         aws.String(path.Join(key, p.Name)),
				Body:        bytes.NewReader(p.Data),
				ContentType: aws.String("application/x-ndjson"),
				Metadata:    meta,
			})
			if err != nil {
				return fmt.Errorf("s3 put %s: %w", path.Join(key, p.Name), err)
			}
		}
	}
	return nil
}

// keys returns the object key prefixes e is written under.
func (d *S3Destination) keys(e *Export) []string {
	return []string{
		path.Join(d.prefix, "latest"),
		path.Join(d.prefix, "daily", e.TakenAt.UTC().Format("2006/01/02")),
	}
}
