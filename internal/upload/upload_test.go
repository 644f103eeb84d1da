package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target, bucket, prefix string
		wantErr                bool
	}{
		{target: "s3://reports", bucket: "reports"},
		{target: "s3://reports/nightly", bucket: "reports", prefix: "nightly"},
		{target: "s3://reports/ci/main/", bucket: "reports", prefix: "ci/main"},
		{target: "reports/nightly", wantErr: true},
		{target: "s3:///nightly", wantErr: true},
	}
	for _, tt := range tests {
		bucket, prefix, err := ParseTarget(tt.target)
		if tt.wantErr {
			assert.ErrorIs(t, err, sqlscan.ErrInvalidConfig, tt.target)
			continue
		}
		require.NoError(t, err, tt.target)
		assert.Equal(t, tt.bucket, bucket)
		assert.Equal(t, tt.prefix, prefix)
	}
}

func TestNewS3Uploader_Validation(t *testing.T) {
	_, err := NewS3Uploader(Config{})
	require.ErrorIs(t, err, sqlscan.ErrInvalidConfig)
	for _, want := range []string{"endpoint", "access key", "bucket"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestObjectKey(t *testing.T) {
	u, err := NewS3Uploader(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b", Prefix: "/ci/"})
	require.NoError(t, err)
	assert.Equal(t, "ci/run-1.json", u.ObjectKey("run-1"))

	noPrefix, err := NewS3Uploader(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "run-1.json", noPrefix.ObjectKey("run-1"))
}

// fakeS3 answers just enough of the S3 API for a bucket check and a single PUT.
type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string]string
	heads   int
	failPut bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		f.heads++
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		if f.failPut {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = string(body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeUploader(t *testing.T, fake *fakeS3) *S3Uploader {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	up, err := NewS3Uploader(Config{Endpoint: u.Host, AccessKey: "key", SecretKey: "secret", Bucket: "reports", Prefix: "nightly"})
	require.NoError(t, err)
	return up
}

func TestUpload(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	up := newFakeUploader(t, fake)

	runID := uuid.MustParse("3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11")
	rep := &sqlscan.ScanReport{RunID: runID, SourcePath: "/repo", StartedAt: time.Now()}

	ctx := context.Background()
	location, err := up.Upload(ctx, rep)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(location, "/reports/nightly/3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11.json"), location)

	body, ok := fake.puts["/reports/nightly/3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11.json"]
	require.True(t, ok, "object written under prefix/runID.json")
	assert.Contains(t, body, `"runId": "3f2c8f0e-6a51-4a51-9d8e-2b0f4c1d7e11"`)

	// the bucket is checked once per uploader
	_, err = up.Upload(ctx, rep)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.heads)
}

func TestUpload_Failure(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}, failPut: true}
	up := newFakeUploader(t, fake)

	_, err := up.Upload(context.Background(), &sqlscan.ScanReport{RunID: uuid.New()})
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlscan.ErrUploadFailed)
}
