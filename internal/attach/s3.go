package attach

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/yourorg/helpdesk/chat-service/internal/models"
)

// S3Uploader stores attachments in an S3 bucket. With publicRead the
// attachment URL is the plain object URL, otherwise a presigned GET
// URL with the configured TTL.
type S3Uploader struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucket     string
	region     string
	publicRead bool
	presignTTL time.Duration
}

func NewS3Uploader(ctx context.Context, region, bucket string, publicRead bool, presignTTL time.Duration) (*S3Uploader, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Uploader{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
		region:     region,
		publicRead: publicRead,
		presignTTL: presignTTL,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, f File) (models.Attachment, error) {
	key := "attachments/" + uuid.NewString() + "-" + sanitize(f.Name)
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("s3 upload: %w", err)
	}

	var objURL string
	if u.publicRead {
		objURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, url.PathEscape(key))
	} else {
		presigner := s3.NewPresignClient(u.client)
		req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(u.presignTTL))
		if err != nil {
			return models.Attachment{}, fmt.Errorf("s3 presign: %w", err)
		}
		objURL = req.URL
	}

	return models.Attachment{
		Name: f.Name,
		URL:  objURL,
		Type: f.ContentType,
		Size: f.Size,
	}, nil
}
