package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3API struct {
	getBucketLocationFunc func(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error)
	putObjectFunc         func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

func (m *mockS3API) GetBucketLocation(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error) {
	return m.getBucketLocationFunc(ctx, params, optFns...)
}

func (m *mockS3API) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	return m.putObjectFunc(ctx, params, optFns...)
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		in      string
		want    URI
		wantErr bool
	}{
		{in: "s3://mybucket", want: URI{Bucket: "mybucket"}},
		{in: "s3://mybucket/", want: URI{Bucket: "mybucket"}},
		{in: "s3://mybucket/mydir", want: URI{Bucket: "mybucket", Prefix: "mydir"}},
		{in: "s3://mybucket/a/b//", want: URI{Bucket: "mybucket", Prefix: "a/b"}},
		{in: "https://mybucket", wantErr: true},
		{in: "s3://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseURI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestURIKey(t *testing.T) {
	assert.Equal(t, "NatifyStack/template", URI{Bucket: "b"}.Key("NatifyStack/template"))
	assert.Equal(t, "cfn/NatifyStack/template", URI{Bucket: "b", Prefix: "cfn"}.Key("NatifyStack/template"))
	assert.Equal(t, "s3://b/cfn", URI{Bucket: "b", Prefix: "cfn"}.String())
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://s3.amazonaws.com/b/k", ObjectURL("b", "k", ""))
	assert.Equal(t, "https://s3.amazonaws.com/b/k", ObjectURL("b", "k", "us-east-1"))
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/b/k", ObjectURL("b", "k", "eu-west-1"))
}

func TestUpload(t *testing.T) {
	var got *awss3.PutObjectInput
	var body string
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			got = params
			b, _ := io.ReadAll(params.Body)
			body = string(b)
			return &awss3.PutObjectOutput{}, nil
		},
	}

	err := NewClient(mock).Upload(context.Background(), "artifacts", "natifylambda.zip", strings.NewReader("zipdata"), 7, "application/zip")
	require.NoError(t, err)
	assert.Equal(t, "artifacts", awssdk.ToString(got.Bucket))
	assert.Equal(t, "natifylambda.zip", awssdk.ToString(got.Key))
	assert.Equal(t, int64(7), awssdk.ToInt64(got.ContentLength))
	assert.Equal(t, "application/zip", awssdk.ToString(got.ContentType))
	assert.Equal(t, "zipdata", body)
}

func TestUpload_Error(t *testing.T) {
	apiErr := errors.New("AccessDenied")
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			return nil, apiErr
		},
	}

	err := NewClient(mock).Upload(context.Background(), "b", "k", strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, apiErr)
}

func TestUploadTemplate(t *testing.T) {
	var key string
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			key = awssdk.ToString(params.Key)
			return &awss3.PutObjectOutput{}, nil
		},
		getBucketLocationFunc: func(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error) {
			return &awss3.GetBucketLocationOutput{LocationConstraint: s3types.BucketLocationConstraintEuWest1}, nil
		},
	}

	url, err := NewClient(mock).UploadTemplate(context.Background(), URI{Bucket: "cfn-bucket", Prefix: "natify"}, "NatifyStack", "Resources: {}")
	require.NoError(t, err)
	assert.Equal(t, "natify/NatifyStack/template", key)
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com/cfn-bucket/natify/NatifyStack/template", url)
}

func TestBucketRegion_DefaultsToUSEast1(t *testing.T) {
	mock := &mockS3API{
		getBucketLocationFunc: func(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error) {
			return &awss3.GetBucketLocationOutput{LocationConstraint: ""}, nil
		},
	}

	region, err := NewClient(mock).BucketRegion(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
}
