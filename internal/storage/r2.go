package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Store talks to an S3-compatible bucket (Cloudflare R2). The service only
// ever hands out presigned PUT URLs and stores the resulting public URL;
// object bytes never pass through this process.
type R2Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	expiry    time.Duration
}

type R2Config struct {
	AccountID     string
	AccessKeyID   string
	SecretKey     string
	Bucket        string
	PublicURL     string
	PresignExpiry time.Duration
}

func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket name is not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &R2Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		expiry:    expiry,
	}, nil
}

// SignUpload issues a time-limited presigned PUT URL for a key
func (s *R2Store) SignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Delete removes an object from the bucket
func (s *R2Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// PublicURL returns the public URL for a key
func (s *R2Store) PublicURL(key string) string {
	return BuildPublicURL(s.publicURL, key)
}

// KeyFromPublicURL recovers the object key from a public URL issued by this
// store. Returns false for URLs served from elsewhere.
func (s *R2Store) KeyFromPublicURL(url string) (string, bool) {
	base := BuildPublicURL(s.publicURL, "")
	if base == "" || !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if key == "" {
		return "", false
	}
	return key, true
}

// BuildPublicURL joins the public base URL and a key, defaulting the scheme
// to https and normalizing slashes. An empty base falls back to the bare key.
func BuildPublicURL(base, key string) string {
	if base == "" {
		return key
	}

	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if !strings.HasSuffix(base, "/") {
		base = base + "/"
	}

	return base + strings.TrimPrefix(key, "/")
}
