package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/config"
)

// exerciseStore runs the shared contract every driver must satisfy.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Put(ctx, "deals/d1/contract.txt", strings.NewReader("signed"), PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	info, rc, err := store.Get(ctx, "deals/d1/contract.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "signed", string(body))
	assert.Equal(t, "text/plain", info.ContentType)

	existed, err := store.Delete(ctx, "deals/d1/contract.txt")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "deals/d1/contract.txt")
	require.NoError(t, err)
	assert.False(t, existed)

	_, _, err = store.Get(ctx, "deals/d1/contract.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemStore(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, store)

	ctx := context.Background()
	info, err := store.Put(ctx, "a.bin", bytes.NewReader([]byte("abc")), PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", info.ETag)

	_, err = store.Put(ctx, "a.bin", bytes.NewReader([]byte("again")), PutOptions{})
	assert.ErrorIs(t, err, ErrExists)

	for _, key := range []string{"../escape", "/abs", " "} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.Error(t, err, key)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	exerciseStore(t, store)
	assert.Equal(t, 0, store.Len())
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.FilesConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, store.Driver())

	store, err = New(ctx, config.FilesConfig{Driver: "fs", RootDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, store.Driver())

	_, err = New(ctx, config.FilesConfig{Driver: "s3"})
	assert.Error(t, err)

	_, err = New(ctx, config.FilesConfig{Driver: "ftp"})
	assert.Error(t, err)
}

type fakeObject struct {
	body        []byte
	contentType string
}

// fakeS3 answers the subset of the S3 REST API the store uses, addressed
// path-style as /<bucket>/<key>.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func respond(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			if body, err = decodeChunked(body); err != nil {
				return nil, err
			}
		}
		f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		return respond(http.StatusOK, nil, http.Header{"Etag": {`"etag-1"`}}), nil
	case http.MethodGet, http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		header := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"etag-1"`},
		}
		if req.Method == http.MethodHead {
			return respond(http.StatusOK, nil, header), nil
		}
		return respond(http.StatusOK, obj.body, header), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

// decodeChunked strips aws-chunked framing: <hex size>\r\n<data>\r\n ... 0\r\n<trailers>.
func decodeChunked(b []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, err
		}
		if _, err := r.Discard(2); err != nil {
			return nil, err
		}
	}
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string]fakeObject{}}
	store, err := NewS3(context.Background(), config.S3Config{
		Bucket:          "dealdesk-files",
		Endpoint:        "https://s3.test.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
	})
	require.NoError(t, err)
	assert.Equal(t, DriverS3, store.Driver())

	exerciseStore(t, store)
	assert.Empty(t, fake.objects)
}
