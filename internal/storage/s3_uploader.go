// Package storage はS3互換オブジェクトストレージへのアップロードを提供する。
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	// DefaultFileName は元ファイル名が空の場合に使うファイル名。
	DefaultFileName = "default-file-name"
	// DefaultContentType はContent-Typeが空の場合に使う値。
	DefaultContentType = "multipart/form-data"
)

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter はS3のPutObjectを抽象化するインターフェース。
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config はS3接続設定。
type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string // 空の場合はデフォルトの認証情報チェーンを使う
	SecretKey    string
	Endpoint     string // MinIO等のS3互換エンドポイント。空の場合はAWS
	PublicDomain string // 公開URLのベース
}

// S3Uploader はファイルをS3にアップロードし公開URLを返す。
type S3Uploader struct {
	client       ObjectPutter
	bucket       string
	publicDomain string
	newID        func() string
}

// NewS3Uploader はcfgからS3クライアントを構築してS3Uploaderを生成する。
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3UploaderWithClient(client, cfg.Bucket, cfg.PublicDomain), nil
}

// NewS3UploaderWithClient は既存のクライアントでS3Uploaderを生成する。
func NewS3UploaderWithClient(client ObjectPutter, bucket, publicDomain string) *S3Uploader {
	return &S3Uploader{
		client:       client,
		bucket:       bucket,
		publicDomain: strings.TrimRight(publicDomain, "/"),
		newID:        uuid.NewString,
	}
}

// Upload はbodyを "<directory>/<uuid>-<fileName>" のキーで保存し、公開URLを返す。
func (u *S3Uploader) Upload(ctx context.Context, body io.Reader, directory, fileName, contentType string, size int64) (string, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	key := ObjectKey(directory, u.newID(), fileName)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return u.publicDomain + "/" + key, nil
}

// ObjectKey はオブジェクトキーを組み立てる。
func ObjectKey(directory, id, fileName string) string {
	name := id + "-" + fileName
	if directory == "" {
		return name
	}
	return strings.Trim(directory, "/") + "/" + name
}
