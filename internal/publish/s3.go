package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/guttosm/sireview/internal/logger"
)

// objectTimeout bounds a single PutObject call.
const objectTimeout = 2 * time.Minute

// Options configures the S3 uploader.
//
// Fields:
//   - Bucket: target bucket; an empty bucket disables publishing.
//   - Region: AWS region (default us-east-1).
//   - Prefix: key prefix placed before "run=<id>/".
//   - Endpoint: custom endpoint for S3-compatible stores (MinIO, LocalStack).
//   - PathStyle: force path-style addressing.
//   - AccessKeyID / SecretAccessKey: static credentials; the default chain is used when empty.
type Options struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies the generated review files to S3.
type Uploader struct {
	client objectPutter
	bucket string
	prefix string
	log    zerolog.Logger
}

// NewUploader builds an S3 client from opts.
//
// Parameters:
//   - ctx: used while resolving the AWS configuration.
//   - opts: bucket, region, credentials and endpoint settings.
//
// Returns:
//   - *Uploader: ready to upload, or nil when opts.Bucket is empty.
//   - error: if the AWS configuration cannot be loaded.
func NewUploader(ctx context.Context, opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, nil
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return newUploader(client, opts.Bucket, opts.Prefix), nil
}

func newUploader(client objectPutter, bucket, prefix string) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    logger.With("publish"),
	}
}

// Key returns the object key of file for a run: <prefix>/run=<id>/<base name>.
func (u *Uploader) Key(runID, file string) string {
	return path.Join(u.prefix, "run="+runID, filepath.Base(file))
}

// Upload puts every file under the run's key prefix and returns the s3:// URIs.
// The first failure stops the upload.
func (u *Uploader) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	uris := make([]string, 0, len(files))
	for _, f := range files {
		key := u.Key(runID, f)
		if err := u.put(ctx, key, f); err != nil {
			return uris, fmt.Errorf("upload %s: %w", filepath.Base(f), err)
		}
		uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
		u.log.Info().Str("run_id", runID).Str("uri", uri).Msg("uploaded review output")
		uris = append(uris, uri)
	}
	return uris, nil
}

func (u *Uploader) put(ctx context.Context, key, file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	ctx, cancel := context.WithTimeout(ctx, objectTimeout)
	defer cancel()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        fh,
		ContentType: aws.String(contentType(file)),
	})
	return err
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
