package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

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
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// StorageConfig points at an S3-compatible bucket holding avatars.
type StorageConfig struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
	URLTTL       time.Duration
}

type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AvatarService keeps the object-storage reference of user avatars. Clients
// upload and download the images directly with presigned URLs.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     StorageConfig
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, storage StorageConfig) *AvatarService {
	return &AvatarService{db: db, repomanager: m, storage: storage}
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.storage.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.storage.User,
			s.storage.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.storage.BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func avatarKey(userID string) (string, error) {
	suffix, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("avatars/%s/%s", userID, suffix), nil
}

// PresignUpload reserves a new object key for the avatar of userID and
// returns a URL the owner can PUT the image to.
func (s *AvatarService) PresignUpload(ctx context.Context, actor *auth.Principal, userID string) (*AvatarUpload, error) {
	if err := auth.RequireSelf(actor, userID); err != nil {
		return nil, err
	}

	key, err := avatarKey(userID)
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.storage.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.storage.URLTTL))
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.AvatarKey = key
		return users.Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	return &AvatarUpload{Key: key, URL: req.URL}, nil
}

// URL returns a download URL for the avatar of userID, or "" when the user
// has the default avatar.
func (s *AvatarService) URL(ctx context.Context, userID string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("avatar url: %w", err)
	}
	if user.AvatarKey == "" {
		return "", nil
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("avatar url: %w", err)
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.storage.Bucket),
		Key:    aws.String(user.AvatarKey),
	}, s3.WithPresignExpires(s.storage.URLTTL))
	if err != nil {
		return "", fmt.Errorf("avatar url: %w", err)
	}
	return req.URL, nil
}

// Reset restores the default avatar.
func (s *AvatarService) Reset(ctx context.Context, actor *auth.Principal, userID string) error {
	if err := auth.RequireSelfOrRole(actor, userID, auth.RoleAdmin); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.AvatarKey == "" {
			return nil
		}
		user.AvatarKey = ""
		return users.Update(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("avatar reset: %w", err)
	}
	return nil
}
