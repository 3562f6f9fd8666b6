// Package artifact はモデルやクラス一覧などの起動時アーティファクトをローカルパスに解決します。
// s3://bucket/key 形式のパスは一時ディレクトリへダウンロードされます。
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	platformhttp "calorie_backend/internal/platform/http"
)

const (
	s3Scheme        = "s3://"
	downloadTimeout = 10 * time.Minute
)

// ErrInvalidS3URI はs3:// パスからバケットまたはキーを取り出せない場合に返されます。
var ErrInvalidS3URI = errors.New("invalid s3 uri")

// objectGetter は*s3.Clientのうち、Fetcherが使うメソッドです。
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config はS3クライアントの設定です。Endpointが空の場合はAWSの既定エンドポイントを使用します。
type S3Config struct {
	Region   string
	Endpoint string
}

// Fetcher はアーティファクトパスを解決します。
type Fetcher struct {
	newClient func(ctx context.Context) (objectGetter, error)
	client    objectGetter
	dir       string
	log       *zap.Logger
}

// NewFetcher はFetcherを生成します。S3クライアントは最初のs3:// パスを解決する時点で作成されます。
func NewFetcher(cfg S3Config, dir string, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		newClient: func(ctx context.Context) (objectGetter, error) {
			return newS3Client(ctx, cfg)
		},
		dir: dir,
		log: log,
	}
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(platformhttp.NewHTTPClient(downloadTimeout)),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// IsRemote はパスがS3上のオブジェクトを指すかどうかを返します。
func IsRemote(p string) bool {
	return strings.HasPrefix(p, s3Scheme)
}

// ParseS3URI は s3://bucket/key をバケットとキーに分解します。
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") || !localSafe(key) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	return bucket, key, nil
}

// localSafe は、キーをダウンロード先ディレクトリ配下のパスとして使えるかを返します。
func localSafe(key string) bool {
	if strings.HasPrefix(key, "/") {
		return false
	}
	clean := path.Clean(key)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

// Resolve はローカルパスをそのまま返し、s3:// パスはダウンロード先のローカルパスを返します。
// 空文字列は空文字列のまま返します。
func (f *Fetcher) Resolve(ctx context.Context, p string) (string, error) {
	if p == "" || !IsRemote(p) {
		return p, nil
	}
	bucket, key, err := ParseS3URI(p)
	if err != nil {
		return "", err
	}

	if f.client == nil {
		c, err := f.newClient(ctx)
		if err != nil {
			return "", err
		}
		f.client = c
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", p, err)
	}
	defer out.Body.Close()

	// キーの階層を保ち、同名ファイルの衝突を避ける
	local := filepath.Join(f.dir, bucket, filepath.FromSlash(path.Clean(key)))
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	file, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", local, err)
	}
	n, err := io.Copy(file, out.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(local)
		return "", fmt.Errorf("write %s: %w", local, err)
	}

	f.log.Info("artifact downloaded",
		zap.String("source", p),
		zap.String("path", local),
		zap.Int64("bytes", n))
	return local, nil
}
