package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rohits-web03/dnastore/internal/config"
)

// objectStore is the subset of the S3 client used by Archive.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Archive keeps the raw payload of each submitted batch in an R2 (or other
// S3-compatible) bucket.
type Archive struct {
	client    objectStore
	presigner presigner
	bucket    string
}

// NewArchive builds an Archive from static credentials. It returns nil when no bucket is configured.
func NewArchive(cfg config.R2Config) *Archive {
	if !cfg.Enabled() {
		return nil
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Archive{client: client, presigner: s3.NewPresignClient(client), bucket: cfg.BucketName}
}

// ArchiveKey is the object key holding the payload of batch id.
func ArchiveKey(batchID uint) string {
	return fmt.Sprintf("batches/%d.json", batchID)
}

// Put stores payload as the archived submission of batchID.
func (a *Archive) Put(ctx context.Context, batchID uint, payload []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(batchID)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive batch %d: %w", batchID, err)
	}
	return nil
}

// Exists reports whether an archived payload is stored for batchID.
func (a *Archive) Exists(ctx context.Context, batchID uint) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ArchiveKey(batchID)),
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

// PresignGet creates a temporary download URL for the archived payload of batchID.
func (a *Archive) PresignGet(ctx context.Context, batchID uint, expires time.Duration) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ArchiveKey(batchID)),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
