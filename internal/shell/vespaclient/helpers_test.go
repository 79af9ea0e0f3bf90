package vespaclient

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const clusterRemovalBody = `{"error-code":"INVALID_APPLICATION_PACKAGE","message":"Invalid application: content-cluster-removal: Content cluster 'docs' is removed. This will cause loss of all data in this cluster"}`

// fakeConfigServer is a config server answering health checks and
// prepareandactivate with a scripted status and body.
type fakeConfigServer struct {
	mu       sync.Mutex
	status   int
	body     string
	unready  int // health checks answered 503 before turning healthy
	deploys  [][]byte
	healthOK int
	server   *httptest.Server
}

func newFakeConfigServer(t *testing.T) *fakeConfigServer {
	t.Helper()
	f := &fakeConfigServer{status: http.StatusOK, body: `{"message":"Session 3 for tenant 'default' prepared and activated.","session-id":"3"}`}

	r := chi.NewRouter()
	r.Get("/state/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.unready > 0 {
			f.unready--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		f.healthOK++
		w.Write([]byte(`{"status":{"code":"up"}}`))
	})
	r.Post("/application/v2/tenant/{tenant}/prepareandactivate", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deploys = append(f.deploys, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
	})

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeConfigServer) URL() string { return f.server.URL }

func (f *fakeConfigServer) refuse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

func (f *fakeConfigServer) deployCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deploys)
}

// writeAppRoot creates a minimal application root.
func writeAppRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if files == nil {
		files = map[string]string{"services.xml": "<services version='1.0'/>"}
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// unzip returns the archive entries by name.
func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}
