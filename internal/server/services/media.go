package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	sc "github.com/dmitrijs2005/sitekeeper/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// mediaExtensions lists the upload types accepted for project and blog images.
var mediaExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// PresignedUpload is handed to the browser (or the admin CLI), which PUTs
// the file body to UploadURL and stores PublicURL in the entity.
type PresignedUpload struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"uploadUrl"`
	PublicURL   string    `json:"publicUrl"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// MediaService issues presigned S3 uploads for images.
type MediaService struct {
	config *sc.Config
	now    func() time.Time
}

func NewMediaService(config *sc.Config) *MediaService {
	return &MediaService{config: config, now: time.Now}
}

// StorageKey returns media/YYYY/MM/DD/<uuid><ext> for an upload at d.
func StorageKey(d time.Time, ext string) string {
	return fmt.Sprintf("media/%04d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload validates filename's extension and returns a 15-minute PUT
// URL for a fresh key.
func (s *MediaService) PresignUpload(ctx context.Context, filename string) (*PresignedUpload, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := mediaExtensions[ext]
	if !ok {
		return nil, common.NewValidationError("filename", "unsupported file type")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := StorageKey(now, ext)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &PresignedUpload{
		Key:         key,
		UploadURL:   req.URL,
		PublicURL:   strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + key,
		ContentType: contentType,
		ExpiresAt:   now.Add(presignExpiry),
	}, nil
}
