package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/webbiemuchy/agrimarket/internal/config"
)

var (
	R2Client     *s3.Client
	R2BucketName string
)

// InitR2 initializes the object storage client for project documents using
// static credentials and the Cloudflare R2 endpoint.
func InitR2() error {
	r2 := config.Envs.R2
	if r2.AccountID == "" || r2.AccessKeyID == "" {
		return errors.New("missing R2 credentials")
	}
	R2BucketName = r2.BucketName
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID)

	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(r2.AccessKeyID, r2.SecretAccessKey, ""),
		Region:      r2.Region,
	}

	R2Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	log.Println("Successfully initialized R2 client")
	return nil
}

// GeneratePresignedPutURL creates a presigned URL for uploading a document.
func GeneratePresignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigner := s3.NewPresignClient(R2Client)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// GeneratePresignedGetURL creates a presigned URL for downloading a document.
func GeneratePresignedGetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigner := s3.NewPresignClient(R2Client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// VerifyObjectExists checks whether the given object key exists in the bucket.
func VerifyObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := R2Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(R2BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NotFound
		if errors.As(err, &nsk) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
