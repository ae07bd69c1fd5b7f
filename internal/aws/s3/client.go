package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	GetBucketLocation(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Client struct {
	api S3API
}

func NewClient(api S3API) *Client {
	return &Client{api: api}
}

func (c *Client) BucketRegion(ctx context.Context, bucket string) (string, error) {
	out, err := c.api.GetBucketLocation(ctx, &awss3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", fmt.Errorf("GetBucketLocation(%s): %w", bucket, err)
	}

	region := string(out.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

// Upload writes body to bucket/key. size must be the exact body length.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	input := &awss3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("PutObject(%s/%s): %w", bucket, key, err)
	}
	return nil
}

// UploadTemplate stores a stack template under <uri>/<stackName>/template
// and returns the URL to hand to CloudFormation.
func (c *Client) UploadTemplate(ctx context.Context, uri URI, stackName, template string) (string, error) {
	key := uri.Key(stackName + "/template")
	if err := c.Upload(ctx, uri.Bucket, key, strings.NewReader(template), int64(len(template)), "text/plain"); err != nil {
		return "", err
	}

	region, err := c.BucketRegion(ctx, uri.Bucket)
	if err != nil {
		return "", err
	}
	return ObjectURL(uri.Bucket, key, region), nil
}
