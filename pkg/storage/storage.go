// Package storage reads and writes parameter set bitstreams and
// subsequence payloads on the local filesystem or in S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("storage")

// Storage is a flat namespace of blobs below a base location.
// Names use forward slashes on every backend.
type Storage interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)

	// BasePath returns the location the storage was opened at
	BasePath() string
}

// Local stores blobs below a directory
type Local struct {
	basePath string
}

// NewLocal creates a local backend rooted at basePath
func NewLocal(basePath string) *Local {
	return &Local{basePath: basePath}
}

func (s *Local) full(name string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(name))
}

func (s *Local) ReadFile(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(s.full(name))
}

// WriteFile creates missing parent directories
func (s *Local) WriteFile(_ context.Context, name string, data []byte) error {
	p := s.full(name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	log.Debugf("writing %d bytes to %s", len(data), p)
	return os.WriteFile(p, data, 0644)
}

// List returns the names of all files below prefix
func (s *Local) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.Walk(s.full(prefix), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(s.basePath, p)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	return names, err
}

func (s *Local) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(s.full(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *Local) BasePath() string {
	return s.basePath
}

// S3 stores blobs below a bucket prefix
type S3 struct {
	bucket     string
	prefix     string
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewS3 creates an S3 backend for a location of the form
// s3://bucket[/prefix], using the default AWS credential chain.
func NewS3(ctx context.Context, location string) (*S3, error) {
	bucket, prefix, err := splitS3(location)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3WithClient creates an S3 backend on an existing client
func NewS3WithClient(client *s3.Client, bucket, prefix string) *S3 {
	return &S3{
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}
}

func splitS3(location string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(location, "s3://") {
		return "", "", fmt.Errorf("invalid S3 location: %s (must start with s3://)", location)
	}
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 location: %s (no bucket)", location)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3) ReadFile(ctx context.Context, name string) ([]byte, error) {
	key := s.key(name)
	buf := manager.NewWriteAtBuffer(nil)
	n, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Debugf("downloaded %d bytes from s3://%s/%s", n, s.bucket, key)
	return buf.Bytes(), nil
}

func (s *S3) WriteFile(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Debugf("uploaded %d bytes to s3://%s/%s", len(data), s.bucket, key)
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			names = append(names, key)
		}
	}
	return names, nil
}

func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3) BasePath() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}
	return "s3://" + s.bucket + "/" + s.prefix
}

// New opens the backend matching location
func New(ctx context.Context, location string) (Storage, error) {
	if strings.HasPrefix(location, "s3://") {
		return NewS3(ctx, location)
	}
	return NewLocal(location), nil
}

// Split separates a file location into the storage that holds it and
// its name within that storage.
func Split(location string) (dir, name string) {
	if strings.HasPrefix(location, "s3://") {
		bucketAndKey := strings.TrimPrefix(location, "s3://")
		if !strings.Contains(bucketAndKey, "/") {
			return location, ""
		}
		d, n := path.Split(location)
		return strings.TrimSuffix(d, "/"), n
	}
	d, n := filepath.Split(location)
	if d == "" {
		d = "."
	}
	return d, n
}

// ReadLocation reads a single file given by a local path or an S3 URL
func ReadLocation(ctx context.Context, location string) ([]byte, error) {
	dir, name := Split(location)
	s, err := New(ctx, dir)
	if err != nil {
		return nil, err
	}
	return s.ReadFile(ctx, name)
}

// WriteLocation writes a single file given by a local path or an S3 URL
func WriteLocation(ctx context.Context, location string, data []byte) error {
	dir, name := Split(location)
	s, err := New(ctx, dir)
	if err != nil {
		return err
	}
	return s.WriteFile(ctx, name, data)
}
