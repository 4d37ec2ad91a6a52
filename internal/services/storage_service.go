package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type StorageService interface {
	UploadFile(ctx context.Context, body io.Reader, filename, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	GetSignedURL(ctx context.Context, fileURL string) (string, error)
}

type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3StorageService stores files in an S3-compatible bucket (Supabase storage
// exposes one). Public URLs are built from publicBaseURL/<bucket>/<key>.
type S3StorageService struct {
	client        objectClient
	presigner     objectPresigner
	bucket        string
	publicBaseURL string
	presignTTL    time.Duration
}

func NewS3StorageService(client *s3.Client, bucket, publicBaseURL string, presignTTL time.Duration) *S3StorageService {
	return newS3StorageService(client, s3.NewPresignClient(client), bucket, publicBaseURL, presignTTL)
}

func newS3StorageService(
	client objectClient,
	presigner objectPresigner,
	bucket, publicBaseURL string,
	presignTTL time.Duration,
) *S3StorageService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &S3StorageService{
		client:        client,
		presigner:     presigner,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		presignTTL:    presignTTL,
	}
}

func (s *S3StorageService) UploadFile(ctx context.Context, body io.Reader, filename, contentType, folder string) (string, error) {
	key := path.Join(strings.Trim(folder, "/"), path.Base(filename))
	if key == "" || key == "." {
		return "", fmt.Errorf("%w: empty object key", ErrInvalidInput)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key), nil
}

func (s *S3StorageService) DeleteFile(ctx context.Context, fileURL string) error {
	key, err := s.objectKeyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *S3StorageService) GetSignedURL(ctx context.Context, fileURL string) (string, error) {
	key, err := s.objectKeyFromURL(fileURL)
	if err != nil {
		return "", err
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = s.presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("get signed url: %w", err)
	}
	return req.URL, nil
}

func (s *S3StorageService) objectKeyFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	base, err := url.Parse(s.publicBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse public base url: %w", err)
	}

	prefix := strings.TrimRight(base.Path, "/") + "/" + s.bucket + "/"
	if parsed.Host != base.Host || !strings.HasPrefix(parsed.Path, prefix) {
		return "", fmt.Errorf("file url does not belong to configured bucket")
	}
	return strings.TrimPrefix(parsed.Path, prefix), nil
}
