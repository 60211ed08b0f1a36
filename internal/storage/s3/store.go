// Package s3 stores artifacts in an S3 bucket under <prefix>/<area dir>/<name>.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"contractinvoice/internal/config"
	"contractinvoice/internal/domain"
	"contractinvoice/internal/storage"
)

const defaultPresignExpiry = 15 * time.Minute

// Store implements port.ArtifactStore on S3.
type Store struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	uploader      *manager.Uploader
	bucket        string
	prefix        string
	dirs          storage.Dirs
	presignExpiry time.Duration
	log           *zap.Logger
}

// New loads the AWS configuration and builds a Store.
func New(ctx context.Context, cfg *config.S3Config, dirs storage.Dirs, log *zap.Logger) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg, dirs, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, cfg *config.S3Config, dirs storage.Dirs, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	expiry := time.Duration(cfg.PresignExpiry) * time.Second
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	return &Store{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		dirs:          dirs,
		presignExpiry: expiry,
		log:           log,
	}
}

func (s *Store) key(area domain.Area, name string) (string, error) {
	if err := storage.ValidateName(name); err != nil {
		return "", err
	}
	dir, err := s.dirs.Dir(area)
	if err != nil {
		return "", err
	}
	return path.Join(s.prefix, dir, name), nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

// Create uses a conditional PutObject so S3 itself refuses to replace an
// existing key; objects only become visible once fully uploaded.
func (s *Store) Create(ctx context.Context, area domain.Area, name string, data []byte) error {
	key, err := s.key(area, name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return fmt.Errorf("%w: %s/%s", domain.ErrArtifactExists, area, name)
			}
		}
		return fmt.Errorf("s3 create: %w", err)
	}
	s.log.Debug("storage.s3.created", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Put uploads with the multipart manager, replacing any existing object.
func (s *Store) Put(ctx context.Context, area domain.Area, name string, data []byte) error {
	key, err := s.key(area, name)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	return nil
}

// Open downloads a whole object.
func (s *Store) Open(ctx context.Context, area domain.Area, name string) ([]byte, error) {
	key, err := s.key(area, name)
	if err != nil {
		return nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, area, name)
		}
		return nil, fmt.Errorf("s3 download: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 download read: %w", err)
	}
	return data, nil
}

// LocalPath stages the object in a temp dir under its own name, so the
// extension survives for extractors. cleanup removes the dir.
func (s *Store) LocalPath(ctx context.Context, area domain.Area, name string) (string, func(), error) {
	data, err := s.Open(ctx, area, name)
	if err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp("", "invoicer-s3-*")
	if err != nil {
		return "", nil, fmt.Errorf("staging %s/%s: %w", area, name, err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("staging %s/%s: %w", area, name, err)
	}
	return p, cleanup, nil
}

// PresignedURL returns a time-limited GET URL for an artifact.
func (s *Store) PresignedURL(ctx context.Context, area domain.Area, name string) (string, error) {
	key, err := s.key(area, name)
	if err != nil {
		return "", err
	}
	result, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return result.URL, nil
}
