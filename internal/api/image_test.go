package api

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"

	"github.com/inferio-2004/recipe-generator/config"
	"github.com/inferio-2004/recipe-generator/internal/model"
)

func testS3Config() *config.S3Config {
	client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	})
	return &config.S3Config{Client: client, BucketName: "recipe-images"}
}

func TestS3ImageResolver(t *testing.T) {
	r := NewS3ImageResolver(testS3Config(), 15*time.Minute)
	ctx := context.Background()

	url := r.Resolve(ctx, "s3://recipe-images/recipes/9.jpg")
	assert.Contains(t, url, "recipe-images")
	assert.Contains(t, url, "recipes/9.jpg")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=900")

	assert.Equal(t, "https://example.com/a.jpg", r.Resolve(ctx, "https://example.com/a.jpg"))
	assert.Equal(t, "s3://other-bucket/a.jpg", r.Resolve(ctx, "s3://other-bucket/a.jpg"))
}

func TestResolveImagesSkipsEmpty(t *testing.T) {
	recipes := []model.Recipe{{ImageURL: "s3://bucket/a.jpg"}, {}}
	resolveImages(context.Background(), prefixResolver{}, recipes)
	assert.Equal(t, "https://cdn.example.com/a.jpg", recipes[0].ImageURL)
	assert.Empty(t, recipes[1].ImageURL)

	resolveImages(context.Background(), nil, recipes)
	assert.Equal(t, "https://cdn.example.com/a.jpg", recipes[0].ImageURL)
}
