package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObjectClient struct {
	putKey    string
	putType   string
	putBody   string
	deleteKey string
}

func (c *stubObjectClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.putKey = *params.Key
	c.putType = *params.ContentType
	body, _ := io.ReadAll(params.Body)
	c.putBody = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (c *stubObjectClient) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.deleteKey = *params.Key
	return &s3.DeleteObjectOutput{}, nil
}

type stubPresigner struct {
	key     string
	expires time.Duration
}

func (p *stubPresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.key = *params.Key
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + p.key}, nil
}

func TestS3StorageServiceRoundTrip(t *testing.T) {
	client := &stubObjectClient{}
	presigner := &stubPresigner{}
	service := newS3StorageService(client, presigner, "media", "https://proj.supabase.co/storage/v1/object/public/", 10*time.Minute)

	fileURL, err := service.UploadFile(context.Background(), strings.NewReader("data"), "a.png", "image/png", "/avatars/user/")
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/media/avatars/user/a.png", fileURL)
	assert.Equal(t, "avatars/user/a.png", client.putKey)
	assert.Equal(t, "image/png", client.putType)
	assert.Equal(t, "data", client.putBody)

	signed, err := service.GetSignedURL(context.Background(), fileURL)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/avatars/user/a.png", signed)
	assert.Equal(t, 10*time.Minute, presigner.expires)

	require.NoError(t, service.DeleteFile(context.Background(), fileURL))
	assert.Equal(t, "avatars/user/a.png", client.deleteKey)
}

func TestS3StorageServiceRejectsForeignURL(t *testing.T) {
	service := newS3StorageService(&stubObjectClient{}, &stubPresigner{}, "media", "https://proj.supabase.co/storage/v1/object/public", 0)

	assert.Error(t, service.DeleteFile(context.Background(), "https://elsewhere.example.com/storage/v1/object/public/media/a.png"))
	_, err := service.GetSignedURL(context.Background(), "https://proj.supabase.co/storage/v1/object/public/other/a.png")
	assert.Error(t, err)
}
