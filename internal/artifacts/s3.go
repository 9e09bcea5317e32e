package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/config"
)

// putObjectAPI is the part of the S3 client the store uses
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store archives run outputs in an S3 compatible bucket
type S3Store struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// NewArtifactStore returns nil when archiving is disabled
func NewArtifactStore(ctx context.Context, cfg *config.ArtifactsConfig, logger *slog.Logger) (abstractions.ArtifactStore, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Run artifacts are disabled")
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, errors.New("artifacts.bucket is required when artifacts are enabled")
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	logger.Info("Run artifacts are enabled", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "endpoint", cfg.Endpoint)
	return newS3Store(s3.NewFromConfig(awsCfg, s3Options...), cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Store(client putObjectAPI, bucket string, prefix string, logger *slog.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *S3Store) Name() string {
	return "s3://" + s.bucket
}

// Put uploads body under the store prefix and returns the s3 url of the object
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	objectKey := key
	if s.prefix != "" {
		objectKey = path.Join(s.prefix, key)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact %s: %w", objectKey, err)
	}
	s.logger.Info("Uploaded run artifact", "bucket", s.bucket, "key", objectKey, "size", len(body))
	u := url.URL{Scheme: "s3", Host: s.bucket, Path: "/" + objectKey}
	return u.String(), nil
}

// ObjectKey is the key of the archived output of a run
func ObjectKey(workflowID string, runID string) string {
	return path.Join(workflowID, runID, "playbook.md")
}
