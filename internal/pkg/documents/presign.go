package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/env"
)

const s3Scheme = "s3://"

// Config holds the object storage settings used to sign document links.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	EndpointURL     string // Optional for S3-compatible services
	Expiry          time.Duration
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "af-south-1"),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Expiry:          env.GetEnvDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
		Enabled:         env.GetEnvBool("S3_DOCUMENTS_ENABLED", false),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 documents are enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 documents are enabled")
		}
	}

	return cfg, nil
}

// ParseS3Ref splits "s3://bucket/key" into its parts.
func ParseS3Ref(ref string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(ref, s3Scheme) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(ref, s3Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// S3Resolver signs s3:// references and passes every other URL through.
type S3Resolver struct {
	presign func(ctx context.Context, bucket, key string) (string, error)
}

// NewS3Resolver creates a resolver signing links for cfg.Expiry.
func NewS3Resolver(ctx context.Context, cfg *Config) (*S3Resolver, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})
	presigner := s3.NewPresignClient(client, s3.WithPresignExpires(cfg.Expiry))

	return &S3Resolver{
		presign: func(ctx context.Context, bucket, key string) (string, error) {
			req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
	}, nil
}

func (r *S3Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := ParseS3Ref(ref)
	if !ok {
		return ref, nil
	}
	url, err := r.presign(ctx, bucket, key)
	if err != nil {
		return "", apperrors.Transport("presign document", err)
	}
	return url, nil
}
