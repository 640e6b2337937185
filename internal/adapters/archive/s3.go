package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

// S3Config holds S3 connection configuration.
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// S3Archiver implementa ports.Archiver subiendo los artefactos de un run a
// un bucket S3 compatible (AWS, MinIO, R2).
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 crea el archiver. Con Endpoint usa path-style, necesario en MinIO.
func NewS3(cfg S3Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive.NewS3: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Archiver{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Key devuelve la clave de un artefacto: <prefix>/<runID>/<file>.
func (a *S3Archiver) Key(runID, path string) string {
	k := runID + "/" + filepath.Base(path)
	if a.prefix == "" {
		return k
	}
	return a.prefix + "/" + k
}

// Archive sube cada fichero. Falla en el primer error.
func (a *S3Archiver) Archive(ctx context.Context, runID string, paths []string) error {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("archive.Archive: read %s: %w", p, err)
		}
		key := a.Key(runID, p)
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType(p)),
		})
		if err != nil {
			return fmt.Errorf("archive.Archive: put %s: %w", key, err)
		}
	}
	slog.Info("artifacts archived", "bucket", a.bucket, "run", runID, "files", len(paths))
	return nil
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
