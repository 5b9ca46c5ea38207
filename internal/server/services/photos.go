package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/baleriaa/493/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// URLSigner turns an object key into a short-lived download URL.
type URLSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// PhotoStorage presigns GET requests against the S3-compatible bucket that
// holds photo files. The presign client is built on first successful use; a
// failed build is retried by the next call.
type PhotoStorage struct {
	config *sc.Config

	mu        sync.Mutex
	presigner *s3.PresignClient
}

func NewPhotoStorage(cfg *sc.Config) *PhotoStorage {
	return &PhotoStorage{config: cfg}
}

func (p *PhotoStorage) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.presigner != nil {
		return p.presigner, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	p.presigner = newS3PresignClient(client)
	return p.presigner, nil
}

func (p *PhotoStorage) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := p.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := p.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.config.PhotoURLValidity))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return req.URL, nil
}
