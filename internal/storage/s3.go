package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/snapshot"
)

// Lander uploads raw extract tables to an object store bucket.
type Lander struct {
	client   s3iface.S3API
	bucket   string
	prefix   string
	compress bool
}

// New builds a Lander from the storage configuration. Static credentials
// are used when both key variables resolve; otherwise the SDK default
// chain applies. A non-empty endpoint switches to path-style addressing
// for MinIO and other S3-compatible stores.
func New(cfg config.StorageConfig) (*Lander, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: no bucket configured")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if ak, sk := cfg.AccessKey(), cfg.SecretKey(); ak != "" && sk != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(ak, sk, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create session: %w", err)
	}
	return &Lander{
		client:   s3.New(sess),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		compress: cfg.Compress,
	}, nil
}

// Key returns the object key for a dataset extracted at the given time.
// Runs of the same day land under the same date partition; the batch id
// keeps reruns apart.
func (l *Lander) Key(dataset, batchID string, extractedAt time.Time) string {
	name := dataset + ".csv"
	if l.compress {
		name += ".gz"
	}
	return path.Join(l.prefix, extractedAt.UTC().Format("2006-01-02"), batchID, name)
}

// Land uploads one table. The body is the same CSV the pipeline writes
// locally, gzipped when compression is on.
func (l *Lander) Land(ctx context.Context, t *snapshot.Table, batchID string, extractedAt time.Time) (string, error) {
	var buf bytes.Buffer
	if l.compress {
		gz := gzip.NewWriter(&buf)
		if err := t.WriteCSVTo(gz); err != nil {
			return "", fmt.Errorf("storage: encode %q: %w", t.Name, err)
		}
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("storage: compress %q: %w", t.Name, err)
		}
	} else if err := t.WriteCSVTo(&buf); err != nil {
		return "", fmt.Errorf("storage: encode %q: %w", t.Name, err)
	}

	key := l.Key(t.Name, batchID, extractedAt)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	}
	if l.compress {
		input.ContentEncoding = aws.String("gzip")
	}

	if _, err := l.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("storage: put %q: %w", key, err)
	}
	return key, nil
}

// LandAll uploads every table, stopping at the first failure.
func (l *Lander) LandAll(ctx context.Context, tables []*snapshot.Table, batchID string, extractedAt time.Time) ([]string, error) {
	keys := make([]string, 0, len(tables))
	for _, t := range tables {
		key, err := l.Land(ctx, t, batchID, extractedAt)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
