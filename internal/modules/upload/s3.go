package upload

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mutualsplus/site/internal/config"
	"github.com/mutualsplus/site/internal/pkg/metrics"
)

// putObjectAPI is the part of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts editor images into an S3 compatible bucket.
type S3Uploader struct {
	client       putObjectAPI
	bucket       string
	region       string
	endpoint     string
	customDomain string
	pathStyle    bool
	keyTemplate  string
	maxBytes     int64
	metrics      *metrics.Collector
	now          func() time.Time
}

// NewS3Uploader builds the uploader from the image bed config. A custom
// endpoint (MinIO, R2) switches to path-style addressing.
func NewS3Uploader(cfg config.ImageBedConfig, m *metrics.Collector) (*S3Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete image bed config: bucket/region/access_key_id/secret_access_key are required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	pathStyle := cfg.PathStyle || endpoint != ""

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: pathStyle,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Uploader{
		client:       s3.New(opts),
		bucket:       cfg.Bucket,
		region:       cfg.Region,
		endpoint:     endpoint,
		customDomain: strings.TrimRight(cfg.CustomDomain, "/"),
		pathStyle:    pathStyle,
		keyTemplate:  cfg.Path,
		maxBytes:     int64(cfg.MaxSizeMB) << 20,
		metrics:      m,
		now:          time.Now,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, f File) (string, error) {
	if u.maxBytes > 0 && f.Size() > u.maxBytes {
		u.metrics.ObserveUpload("s3", ErrTooLarge)
		return "", fmt.Errorf("%s: %w", f.Filename, ErrTooLarge)
	}
	key := RenderObjectKey(u.keyTemplate, f.Filename, f.Data, u.now())
	contentType := DetectContentType(f.Filename, f.Data, f.ContentType)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(f.Size()),
	})
	u.metrics.ObserveUpload("s3", err)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.publicURL(key), nil
}

func (u *S3Uploader) publicURL(key string) string {
	switch {
	case u.customDomain != "":
		return u.customDomain + "/" + key
	case u.endpoint != "":
		return u.endpoint + "/" + u.bucket + "/" + key
	case u.pathStyle:
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", u.region, u.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	}
}

// RenderObjectKey expands date, hash and name tokens in an object key template:
// {Y} {y} {m} {d} {h} {i} {s} {timestamp} {uuid} {md5} {md5-16} {filename} {ext}.
func RenderObjectKey(template, originalName string, payload []byte, now time.Time) string {
	tpl := strings.TrimSpace(template)
	if tpl == "" {
		tpl = "editor/{Y}/{m}/{uuid}.{ext}"
	}

	name := strings.TrimSpace(originalName)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		ext = "dat"
	}
	base := strings.TrimSpace(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if base == "" || base == "." {
		base = "file"
	}

	sum := md5.Sum(payload)
	md5Hex := hex.EncodeToString(sum[:])
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	key := strings.NewReplacer(
		"{Y}", now.Format("2006"),
		"{y}", now.Format("06"),
		"{m}", now.Format("01"),
		"{d}", now.Format("02"),
		"{h}", now.Format("15"),
		"{i}", now.Format("04"),
		"{s}", now.Format("05"),
		"{timestamp}", strconv.FormatInt(now.Unix(), 10),
		"{uuid}", id,
		"{md5}", md5Hex,
		"{md5-16}", md5Hex[:16],
		"{filename}", base,
		"{ext}", ext,
	).Replace(tpl)

	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return fmt.Sprintf("editor/%s/%s/%s.%s", now.Format("2006"), now.Format("01"), id, ext)
	}
	return key
}
