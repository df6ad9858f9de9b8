package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/sitekeeper/internal/common"
	sc "github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaService() *MediaService {
	cfg := &sc.Config{
		S3Region:        "us-east-1",
		S3RootUser:      "minioadmin",
		S3RootPassword:  "minioadmin",
		S3BaseEndpoint:  "http://127.0.0.1:9000",
		S3Bucket:        "media",
		S3PublicBaseURL: "http://127.0.0.1:9000/media/",
	}
	svc := NewMediaService(cfg)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC) }
	return svc
}

func stubPresign(t *testing.T) *s3.PutObjectInput {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied")
		}
		if !opts.UsePathStyle {
			t.Fatalf("path-style addressing expected for MinIO")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	captured := &s3.PutObjectInput{}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != 15*time.Minute {
			t.Fatalf("unexpected expiry %v", po.Expires)
		}
		*captured = *in
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/media/" + *in.Key + "?X-Amz-Signature=abc", Method: http.MethodPut}, nil
	}
	return captured
}

func TestPresignUpload(t *testing.T) {
	captured := stubPresign(t)
	svc := newMediaService()

	up, err := svc.PresignUpload(context.Background(), "Cover.PNG")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^media/2024/03/07/[0-9a-f-]{36}\.png$`), up.Key)
	assert.Equal(t, "media", *captured.Bucket)
	assert.Equal(t, up.Key, *captured.Key)
	assert.Equal(t, "image/png", *captured.ContentType)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, "http://127.0.0.1:9000/media/"+up.Key, up.PublicURL)
	assert.Contains(t, up.UploadURL, "X-Amz-Signature")
	assert.Equal(t, time.Date(2024, 3, 7, 12, 15, 0, 0, time.UTC), up.ExpiresAt)
}

func TestPresignUpload_RejectsUnknownType(t *testing.T) {
	stubPresign(t)
	for _, name := range []string{"script.sh", "logo.svg", "LOGO.SVG", "page.html"} {
		_, err := newMediaService().PresignUpload(context.Background(), name)
		assert.ErrorIs(t, err, common.ErrValidation, name)
	}
}

func TestPresignUpload_Errors(t *testing.T) {
	stubPresign(t)
	svc := newMediaService()

	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign-fail")
	}
	_, err := svc.PresignUpload(context.Background(), "a.jpg")
	assert.ErrorIs(t, err, common.ErrorInternal)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.PresignUpload(context.Background(), "a.jpg")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Contains(t, err.Error(), "load-fail")
}
