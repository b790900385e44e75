package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Upload purposes accepted by Presign. The purpose becomes part of the key.
const (
	PurposeInmatePhoto      = "inmate-photo"
	PurposeVisitorPhoto     = "visitor-photo"
	PurposeNoticeAttachment = "notice-attachment"
	PurposeReportAttachment = "report-attachment"
)

var uploadPurposes = map[string]bool{
	PurposeInmatePhoto:      true,
	PurposeVisitorPhoto:     true,
	PurposeNoticeAttachment: true,
	PurposeReportAttachment: true,
}

var validKey = regexp.MustCompile(`^uploads/[a-z-]+/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}$`)

// UploadService hands out presigned URLs so clients move file bytes directly
// to object storage.
type UploadService struct {
	config *config.Config
	logger logging.Logger
	now    func() time.Time
}

func NewUploadService(cfg *config.Config, logger logging.Logger) *UploadService {
	return &UploadService{config: cfg, logger: logger.With("module", "uploads"), now: time.Now}
}

// StorageKey builds uploads/<purpose>/<yyyy>/<mm>/<dd>/<uuid>.
func StorageKey(purpose string, at time.Time) string {
	return fmt.Sprintf("uploads/%s/%04d/%02d/%02d/%s", purpose, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (s *UploadService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(client), nil
}

func (s *UploadService) expiry() time.Duration {
	if s.config.PresignValidityDuration > 0 {
		return s.config.PresignValidityDuration
	}
	return 15 * time.Minute
}

// Presign returns a presigned PUT for a fresh key. Any role except visitor
// may upload.
func (s *UploadService) Presign(ctx context.Context, actor auth.Actor, purpose string) (*models.UploadTicket, error) {
	if !actor.Role.Valid() || actor.Role == models.RoleVisitor {
		return nil, forbidden("role %q may not upload files", actor.Role)
	}
	purpose = strings.TrimSpace(purpose)
	if !uploadPurposes[purpose] {
		return nil, common.NewValidationError(fmt.Sprintf("unknown upload purpose %q", purpose), "purpose")
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	now := s.now()
	key := StorageKey(purpose, now)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.expiry()))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}
	s.logger.Debug(ctx, "upload presigned", "key", key, "actor", actor.ID)
	return &models.UploadTicket{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: now.Add(s.expiry())}, nil
}

// DownloadURL returns a presigned GET for key. Only keys issued by Presign
// are accepted.
func (s *UploadService) DownloadURL(ctx context.Context, actor auth.Actor, key string) (*models.UploadTicket, error) {
	if !actor.Role.Valid() {
		return nil, forbidden("role %q may not read files", actor.Role)
	}
	if !validKey.MatchString(key) {
		return nil, common.NewValidationError("malformed storage key", "key")
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	now := s.now()
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.expiry()))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}
	return &models.UploadTicket{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: now.Add(s.expiry())}, nil
}
