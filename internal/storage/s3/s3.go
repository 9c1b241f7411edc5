// Package s3 implements the evidence object store on Amazon S3. Uploads are multipart
// with one pre-signed UploadPart URL per part, and downloads use a pre-signed GetObject,
// so evidence bytes never flow through the API.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/storage"
)

// API is the subset of the S3 client the store uses
type API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	ListParts(ctx context.Context, params *s3.ListPartsInput, optFns ...func(*s3.Options)) (*s3.ListPartsOutput, error)
}

// Presigner is the subset of the S3 presign client the store uses
type Presigner interface {
	PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements storage.ObjectStore for S3
type Store struct {
	client    API
	presigner Presigner
	bucket    string
	partSize  int64
	ttl       time.Duration
	now       func() time.Time
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates a store from a loaded AWS config
func New(awsCfg aws.Config, cfg *appconfig.S3StorageConfig) (*Store, error) {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClients(client, s3.NewPresignClient(client), cfg)
}

// NewWithClients creates a store over explicit clients
func NewWithClients(client API, presigner Presigner, cfg *appconfig.S3StorageConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	if cfg.PartSizeBytes() <= 0 {
		return nil, fmt.Errorf("s3 part size must be positive")
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		client:    client,
		presigner: presigner,
		bucket:    cfg.Bucket,
		partSize:  cfg.PartSizeBytes(),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// CreateUpload starts a multipart upload and pre-signs one URL per part
func (s *Store) CreateUpload(ctx context.Context, key, contentType string, size int64) (*storage.Upload, error) {
	parts, err := storage.PartCount(size, s.partSize)
	if err != nil {
		return nil, err
	}

	input := &s3.CreateMultipartUploadInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		ServerSideEncryption: types.ServerSideEncryptionAwsKms,
		ChecksumAlgorithm:    types.ChecksumAlgorithmSha256,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	out, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart upload: %w", err)
	}
	uploadID := aws.ToString(out.UploadId)
	if uploadID == "" {
		return nil, errors.New("s3 returned an empty upload id")
	}

	urls := make([]string, 0, parts)
	for i := 1; i <= parts; i++ {
		req, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(i)),
		}, s.expires)
		if err != nil {
			return nil, fmt.Errorf("failed to presign part %d: %w", i, err)
		}
		urls = append(urls, req.URL)
	}

	return &storage.Upload{UploadID: uploadID, PartURLs: urls, PartSize: s.partSize}, nil
}

// CompleteUpload lists the parts the client uploaded and completes the upload with them
func (s *Store) CompleteUpload(ctx context.Context, key, uploadID string) error {
	var completed []types.CompletedPart
	paginator := s3.NewListPartsPaginator(s.client, &s3.ListPartsInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list uploaded parts: %w", err)
		}
		for _, p := range page.Parts {
			completed = append(completed, types.CompletedPart{
				ETag:           p.ETag,
				PartNumber:     p.PartNumber,
				ChecksumSHA256: p.ChecksumSHA256,
			})
		}
	}
	if len(completed) == 0 {
		return errors.New("no parts have been uploaded")
	}

	_, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", err)
	}
	return nil
}

// AbortUpload discards an open multipart upload
func (s *Store) AbortUpload(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}
	return nil
}

// DownloadURL pre-signs a GET that downloads key as an attachment named fileName
func (s *Store) DownloadURL(ctx context.Context, key, fileName string) (string, time.Time, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", fileName)),
	}, s.expires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return req.URL, s.now().Add(s.ttl), nil
}

func (s *Store) expires(o *s3.PresignOptions) {
	o.Expires = s.ttl
}
