package datasource

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	s3          S3Client
	log         *zap.Logger
	concurrency int
}

func NewUploader(c S3Client, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{s3: c, log: log, concurrency: 4}
}

// UploadResult is one object written to the data source bucket.
type UploadResult struct {
	Key         string
	Size        int64
	ContentType string
}

// Upload copies dir/<file> to s3://bucket/<base name of file> for every file.
// All files are checked before anything is sent.
func (u *Uploader) Upload(ctx context.Context, bucket, dir string, files []string) ([]UploadResult, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("missing bucket")
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	paths := make([]string, len(files))
	for i, f := range files {
		p := filepath.Join(dir, f)
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("data source file %s: %w", p, err)
		}
		if st.IsDir() {
			return nil, fmt.Errorf("data source file %s is a directory", p)
		}
		paths[i] = p
	}

	results := make([]UploadResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			res, err := u.put(gctx, bucket, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (u *Uploader) put(ctx context.Context, bucket, path string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	key := filepath.Base(path)
	ct := ContentType(key)
	_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String(ct),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("s3 putobject %s: %w", key, err)
	}

	u.log.Info("uploaded", zap.String("bucket", bucket), zap.String("key", key), zap.Int64("bytes", st.Size()))
	return UploadResult{Key: key, Size: st.Size(), ContentType: ct}, nil
}

// ContentType guesses from the extension, falling back to a binary type.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
