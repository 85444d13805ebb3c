package datasource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
		f.types = map[string]string{}
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(b)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "izakaya_menu.txt"), []byte("生ビール 600円"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "izakaya_guidance.pdf"), []byte("%PDF-1.4"), 0o600))
	return dir
}

func TestUploaderUpload(t *testing.T) {
	dir := writeAssets(t)
	c := &fakeS3{}

	res, err := NewUploader(c, nil).Upload(context.Background(), "agent-izakaya-123456789012", dir,
		[]string{"izakaya_menu.txt", "izakaya_guidance.pdf"})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "izakaya_menu.txt", res[0].Key)
	assert.Equal(t, int64(len("生ビール 600円")), res[0].Size)
	assert.Equal(t, "izakaya_guidance.pdf", res[1].Key)

	keys := make([]string, 0, len(c.objects))
	for k := range c.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"agent-izakaya-123456789012/izakaya_guidance.pdf",
		"agent-izakaya-123456789012/izakaya_menu.txt",
	}, keys)
	assert.Equal(t, "生ビール 600円", c.objects["agent-izakaya-123456789012/izakaya_menu.txt"])
	assert.Equal(t, "application/pdf", c.types["agent-izakaya-123456789012/izakaya_guidance.pdf"])
}

func TestUploaderMissingFileSendsNothing(t *testing.T) {
	dir := writeAssets(t)
	c := &fakeS3{}

	_, err := NewUploader(c, nil).Upload(context.Background(), "bucket", dir,
		[]string{"izakaya_menu.txt", "izakaya_drinks.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "izakaya_drinks.txt")
	assert.Empty(t, c.objects)
}

func TestUploaderErrors(t *testing.T) {
	dir := writeAssets(t)

	_, err := NewUploader(&fakeS3{}, nil).Upload(context.Background(), "", dir, []string{"izakaya_menu.txt"})
	assert.Error(t, err)

	_, err = NewUploader(&fakeS3{}, nil).Upload(context.Background(), "bucket", dir, nil)
	assert.Error(t, err)

	boom := errors.New("access denied")
	_, err = NewUploader(&fakeS3{err: boom}, nil).Upload(context.Background(), "bucket", dir, []string{"izakaya_menu.txt"})
	assert.ErrorIs(t, err, boom)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", ContentType("izakaya_menu.txt"))
	assert.Equal(t, "application/pdf", ContentType("GUIDE.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}
