package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const DefaultURLTTL = 15 * time.Minute

// ErrObjectNotFound is returned when the addressed object does not exist.
var ErrObjectNotFound = errors.New("object not found")

type S3Client interface {
	UploadFile(ctx context.Context, data []byte, key string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	PresignGetURL(ctx context.Context, key string) (string, error)
}

type Options struct {
	Region string
	Bucket string

	// Endpoint points the client at an S3 compatible server (MinIO, LocalStack).
	// Path style addressing is used whenever it is set.
	Endpoint string

	// Static credentials, only used together with Endpoint.
	AccessKeyID     string
	SecretAccessKey string

	URLTTL time.Duration
}

type storageClient struct {
	bucket  string
	urlTTL  time.Duration
	client  *s3.Client
	presign *s3.PresignClient
}

func NewStorageClient(ctx context.Context, opts Options) (S3Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.URLTTL
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	return &storageClient{
		bucket:  opts.Bucket,
		urlTTL:  ttl,
		client:  client,
		presign: s3.NewPresignClient(client, s3.WithPresignExpires(ttl)),
	}, nil
}

// UploadFile stores data under key, overwriting any existing object,
// and returns the key it was stored at.
func (s *storageClient) UploadFile(ctx context.Context, data []byte, key string) (string, error) {
	if key == "" {
		return "", errors.New("object key is empty")
	}

	contentType := ContentTypeOf(key, data)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, mapError(err))
	}
	return key, nil
}

func (s *storageClient) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is empty")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, mapError(err))
	}
	return nil
}

// PresignGetURL returns a time limited URL granting read access to key.
// Signing happens locally, so a missing object still yields a URL.
func (s *storageClient) PresignGetURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("object key is empty")
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}

// ContentTypeOf guesses the MIME type from the key extension, falling back to sniffing.
func ContentTypeOf(key string, data []byte) string {
	if mimeType := mime.TypeByExtension(path.Ext(key)); mimeType != "" {
		return mimeType
	}
	return http.DetectContentType(data)
}

func mapError(err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}
