package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/kendall-kelly/vendor-performance-api/config"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"go.uber.org/zap"
)

// ReportStorage defines the object storage operations used for exported reports
type ReportStorage interface {
	UploadReport(ctx context.Context, key string, body []byte, contentType string) error
	GetPresignedURL(ctx context.Context, key string) (string, error)
	DeleteReport(ctx context.Context, key string) error
}

// S3Service stores reports in an S3 bucket
type S3Service struct {
	client *s3.Client
	bucket string
}

// PresignExpiry is how long a report download link stays valid
const PresignExpiry = time.Hour

var reportStorageInstance ReportStorage

// InitS3Service initializes the S3 report storage with AWS credentials.
// Static credentials are used when configured; otherwise the default AWS
// credential chain applies.
func InitS3Service(ctx context.Context, cfg *appConfig.Config) (ReportStorage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	reportStorageInstance = &S3Service{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}
	return reportStorageInstance, nil
}

// GetReportStorage returns the initialized report storage, or nil
func GetReportStorage() ReportStorage {
	return reportStorageInstance
}

// SetReportStorage sets the report storage instance (primarily for testing)
func SetReportStorage(storage ReportStorage) {
	reportStorageInstance = storage
}

// UploadReport uploads a report body under key
func (s *S3Service) UploadReport(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// GetPresignedURL generates a time-limited download URL for a private object
func (s *S3Service) GetPresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = PresignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	logger.FromContext(ctx).Debug("Generated presigned URL", zap.String("key", key))
	return request.URL, nil
}

// DeleteReport deletes a report from S3
func (s *S3Service) DeleteReport(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete report from S3: %w", err)
	}
	return nil
}
