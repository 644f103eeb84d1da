// Package upload publishes JSON scan reports to S3-compatible object storage.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vvka-141/sqlscan/internal/report"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

const defaultRegion = "us-east-1"

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// ParseTarget splits an s3://bucket/prefix target.
func ParseTarget(target string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(target), "s3://")
	if !ok {
		return "", "", fmt.Errorf("upload target %q must look like s3://bucket/prefix: %w", target, sqlscan.ErrInvalidConfig)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("upload target %q has no bucket: %w", target, sqlscan.ErrInvalidConfig)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// S3Uploader stores reports under <prefix>/<runID>.json.
type S3Uploader struct {
	client   *minio.Client
	bucket   string
	prefix   string
	region   string
	initOnce sync.Once
	initErr  error
}

var _ sqlscan.ReportUploader = (*S3Uploader)(nil)

func NewS3Uploader(cfg Config) (*S3Uploader, error) {
	var errs []string
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		errs = append(errs, "endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		errs = append(errs, "access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		errs = append(errs, "bucket is required")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("s3 upload: %s: %w", strings.Join(errs, "; "), sqlscan.ErrInvalidConfig)
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %v: %w", err, sqlscan.ErrInvalidConfig)
	}

	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: region,
	}, nil
}

func (u *S3Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// ObjectKey returns the key a report with runID is stored under.
func (u *S3Uploader) ObjectKey(runID string) string {
	return path.Join(u.prefix, runID+".json")
}

// Upload stores the JSON report and returns its object URL.
func (u *S3Uploader) Upload(ctx context.Context, rep *sqlscan.ScanReport) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w: %w", u.bucket, sqlscan.ErrUploadFailed, err)
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, rep); err != nil {
		return "", fmt.Errorf("encode report: %w: %w", sqlscan.ErrUploadFailed, err)
	}

	key := u.ObjectKey(rep.RunID.String())
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w: %w", u.bucket, key, sqlscan.ErrUploadFailed, err)
	}

	endpoint := *u.client.EndpointURL()
	endpoint.Path = "/" + u.bucket + "/" + key
	return endpoint.String(), nil
}
