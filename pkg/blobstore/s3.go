package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// S3Store is a Store backed by AWS S3 (or an S3-compatible endpoint such as
// MinIO/LocalStack), keying objects by hex CID.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for MinIO/LocalStack
	Prefix   string
}

// NewS3Store loads the default AWS config and constructs an S3Store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("blobstore: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) key(cid atomtypes.Cid32) string {
	return s.prefix + blobKey(cid)
}

// Put uploads payload, skipping the upload if the object already exists.
func (s *S3Store) Put(ctx context.Context, cid atomtypes.Cid32, payload []byte) error {
	has, err := s.Has(ctx, cid)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(cid)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("blobstore: s3 put %s: %w", cid, err)
	}
	return nil
}

// Get downloads the payload for cid.
func (s *S3Store) Get(ctx context.Context, cid atomtypes.Cid32) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(cid)),
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: s3 get %s: %w", cid, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Has reports whether a blob for cid is already stored.
func (s *S3Store) Has(ctx context.Context, cid atomtypes.Cid32) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(cid)),
	})
	if err != nil {
		// HeadObject returns an error for any non-existent key; S3 does not
		// distinguish "not found" from other failure modes in a way that's
		// worth threading through here, matching the teacher's Exists check.
		return false, nil
	}
	return true, nil
}
