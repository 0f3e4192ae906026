package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/runtime/export"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
)

const (
	DefaultRegion = "us-east-1" // Default region if not specified in AWS profile
)

// Client is the subset of the S3 API used by Bucket.
type Client interface {
	GetObject(ctx context.Context, params *s3sdk.GetObjectInput, optFns ...func(*s3sdk.Options)) (*s3sdk.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3sdk.PutObjectInput, optFns ...func(*s3sdk.Options)) (*s3sdk.PutObjectOutput, error)
}

// Bucket reads category exports from and writes report tables to a key
// prefix of one bucket.
type Bucket struct {
	client   Client
	name     string
	prefix   string
	manifest source.Manifest
}

func NewBucket(client Client, name, prefix string, manifest source.Manifest) *Bucket {
	return &Bucket{
		client:   client,
		name:     name,
		prefix:   prefix,
		manifest: manifest,
	}
}

func LoadConfig(ctx context.Context, profile, region string) (awssdk.Config, error) {
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return awsCfg, nil
}

func NewClient(cfg awssdk.Config) *s3sdk.Client {
	return s3sdk.NewFromConfig(cfg)
}

func (b *Bucket) key(rel string) string {
	return path.Join(b.prefix, rel)
}

func (b *Bucket) Load(ctx context.Context, c domain.Category) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, c)
	}

	key := b.key(b.manifest.FileName(c))
	out, err := b.client.GetObject(ctx, &s3sdk.GetObjectInput{
		Bucket: awssdk.String(b.name),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get s3://%s/%s: %w", b.name, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read s3://%s/%s: %w", b.name, key, err)
	}
	return string(data), nil
}

func (b *Bucket) Write(ctx context.Context, table domain.Table) error {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, table); err != nil {
		return err
	}

	key := b.key(export.RelativePath(table))
	_, err := b.client.PutObject(ctx, &s3sdk.PutObjectInput{
		Bucket:      awssdk.String(b.name),
		Key:         awssdk.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: awssdk.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", b.name, key, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("bucket", b.name).
		Str("key", key).
		Msg("table uploaded")
	return nil
}
