package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"yt2x/config"
	"yt2x/types"
)

// ObjectAPI is the slice of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Archive keeps a copy of every published clip in a bucket, keyed by item id.
type Archive struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// NewArchive loads the default AWS configuration chain with optional region/profile overrides.
func NewArchive(ctx context.Context, cfg config.S3Config) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket not configured")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewArchiveWithAPI(c, cfg.Bucket, cfg.Prefix), nil
}

// NewArchiveWithAPI wraps an existing client.
func NewArchiveWithAPI(api ObjectAPI, bucket, prefix string) *Archive {
	return &Archive{api: api, bucket: bucket, prefix: prefix}
}

// Key is the object key for an item's clip.
func (a *Archive) Key(itemID string) string {
	return path.Join(a.prefix, "clips", itemID+".mp4")
}

// ArchiveClip uploads the clip unless an object for the item already exists, and returns
// the key.
func (a *Archive) ArchiveClip(ctx context.Context, item types.FeedItem, clipPath string) (string, error) {
	key := a.Key(item.ID)

	exists, err := a.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists {
		return key, nil
	}

	f, err := os.Open(clipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("video/mp4"),
		Metadata: map[string]string{
			"item-id":    item.ID,
			"source-url": item.URL,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Exists returns true if the object exists (HTTP 200 from HeadObject); false if 404/NotFound.
func (a *Archive) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, err
}
