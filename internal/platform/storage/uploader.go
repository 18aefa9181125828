package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// ErrTooLarge reports an upload exceeding the configured limit.
var ErrTooLarge = errors.New("storage: upload exceeds size limit")

// Upload describes a single product image upload.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Result identifies a stored object.
type Result struct {
	Object    string
	PublicURL string
}

// Uploader stores product images.
type Uploader interface {
	UploadProductImage(ctx context.Context, upload Upload) (Result, error)
}

type objectNamer struct {
	now     func() time.Time
	entropy io.Reader
	limit   int64
}

func (n objectNamer) name(fileName string) (string, string, error) {
	return ProductObjectPath(fileName, n.now(), n.entropy)
}

// limited reads at most limit bytes and fails if more remain.
func (n objectNamer) limited(body io.Reader) io.Reader {
	if n.limit <= 0 {
		return body
	}
	return &limitReader{r: body, remaining: n.limit}
}

type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// GCSUploader writes objects into a Cloud Storage bucket.
type GCSUploader struct {
	client     *storage.Client
	bucket     string
	publicBase string
	logger     *zap.Logger
	namer      objectNamer
}

// Option customises uploaders.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *zap.Logger
	limit  int64
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxBytes caps upload size. Zero disables the cap.
func WithMaxBytes(limit int64) Option {
	return func(o *options) { o.limit = limit }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewGCSUploader builds an uploader for bucket. Public URLs are
// <publicBase>/<bucket>/<object>.
func NewGCSUploader(client *storage.Client, bucket, publicBase string, opts ...Option) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	o := buildOptions(opts)
	return &GCSUploader{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     o.logger,
		namer:      objectNamer{now: o.now, entropy: rand.Reader, limit: o.limit},
	}, nil
}

func (u *GCSUploader) UploadProductImage(ctx context.Context, upload Upload) (Result, error) {
	object, contentType, err := u.namer.name(upload.FileName)
	if err != nil {
		return Result{}, err
	}

	writer := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(writer, u.namer.limited(upload.Body)); err != nil {
		_ = writer.Close()
		return Result{}, fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("storage: finalize %s: %w", object, err)
	}

	u.logger.Info("storage: product image uploaded", zap.String("bucket", u.bucket), zap.String("object", object))
	return Result{Object: object, PublicURL: publicURL(u.publicBase, u.bucket, object)}, nil
}

// LocalUploader writes objects below a directory served as static files.
type LocalUploader struct {
	dir        string
	publicBase string
	logger     *zap.Logger
	namer      objectNamer
}

// NewLocalUploader stores files under dir; URLs are <publicBase>/<object>.
func NewLocalUploader(dir, publicBase string, opts ...Option) (*LocalUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: upload directory is required")
	}
	o := buildOptions(opts)
	return &LocalUploader{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     o.logger,
		namer:      objectNamer{now: o.now, entropy: rand.Reader, limit: o.limit},
	}, nil
}

func (u *LocalUploader) UploadProductImage(ctx context.Context, upload Upload) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	object, _, err := u.namer.name(upload.FileName)
	if err != nil {
		return Result{}, err
	}

	target := filepath.Join(u.dir, filepath.FromSlash(object))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{}, fmt.Errorf("storage: create directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return Result{}, fmt.Errorf("storage: create %s: %w", object, err)
	}
	if _, err := io.Copy(file, u.namer.limited(upload.Body)); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return Result{}, fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := file.Close(); err != nil {
		return Result{}, fmt.Errorf("storage: close %s: %w", object, err)
	}

	u.logger.Info("storage: product image stored locally", zap.String("object", object))
	return Result{Object: object, PublicURL: u.publicBase + "/" + object}, nil
}

func publicURL(base, bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.Join(segments, "/"))
}
