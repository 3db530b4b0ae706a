package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Ключи содержат uuid и никогда не перезаписываются.
const imageCacheControl = "public, max-age=31536000, immutable"

type R2Options struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	// Endpoint overrides https://<account>.r2.cloudflarestorage.com.
	Endpoint string
}

func (o R2Options) endpoint() string {
	if o.Endpoint != "" {
		return o.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", o.AccountID)
}

// r2Store keeps avatars and wishlist item images in one R2 bucket.
type r2Store struct {
	client  *s3.Client
	bucket  string
	baseURL *url.URL
}

var _ FileUploader = (*r2Store)(nil)

func NewR2Store(ctx context.Context, opts R2Options) (FileUploader, error) {
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" || opts.BucketName == "" {
		return nil, fmt.Errorf("r2: credentials and bucket are required")
	}
	if opts.AccountID == "" && opts.Endpoint == "" {
		return nil, fmt.Errorf("r2: account id or endpoint is required")
	}

	baseURL, err := parsePublicBaseURL(opts.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("r2: load sdk config: %w", err)
	}

	return &r2Store{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.endpoint())
		}),
		bucket:  opts.BucketName,
		baseURL: baseURL,
	}, nil
}

func parsePublicBaseURL(raw string) (*url.URL, error) {
	baseURL, err := url.Parse(raw)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid R2 public base url %q", raw)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	return baseURL, nil
}

func (s *r2Store) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if _, err := ExtensionFromContentType(contentType); err != nil {
		return nil, err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         reader,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(imageCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("r2: put %s: %w", key, err)
	}
	return &UploadResult{Key: key, Location: s.GetPublicURL(key)}, nil
}

func (s *r2Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("r2: delete %s: %w", key, err)
	}
	return nil
}

func (s *r2Store) GetPublicURL(key string) string {
	return publicURL(s.baseURL, key)
}

func publicURL(base *url.URL, key string) string {
	if base == nil || key == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
