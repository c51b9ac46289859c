package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"abstagsync/internal/config"
	"abstagsync/internal/testsupport"
)

// isolateEnv clears every variable the config loader reads and moves the
// working directory so a host .env cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"ABS_URL", "ABS_TOKEN", "ABS_TIMEOUT_SECONDS",
		"RMAB_SOURCE", "RMAB_CONTAINER", "RMAB_DOCKER_BINARY", "RMAB_DB_USER", "RMAB_DB_NAME",
		"RMAB_DSN", "RMAB_QUERY_TIMEOUT_SECONDS", "SYNC_DRY_RUN", "ABS_TAG_SYNC_STATE_DIR",
		"NTFY_TOPIC", "NTFY_REQUEST_TIMEOUT", "LOG_FORMAT", "LOG_LEVEL", "LOG_FILE",
		"ABS_TAG_SYNC_ENV_FILE",
	} {
		t.Setenv(key, "")
	}
}

// fakeABS serves one book library holding a single item and records PATCH
// bodies.
type fakeABS struct {
	mu      sync.Mutex
	patches []map[string]json.RawMessage
}

func (f *fakeABS) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users":
			_, _ = io.WriteString(w, `{"users":[{"id":"u1","username":"alice_abs","email":"Alice@X.com"},{"id":"u2","username":"root"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/libraries":
			_, _ = io.WriteString(w, `{"libraries":[{"id":"lib1","mediaType":"book"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/libraries/lib1/items":
			_, _ = io.WriteString(w, `{"results":[{"id":"i1","libraryId":"lib1","mediaType":"book","tags":["Genre: SciFi"],"media":{"metadata":{"title":"Dune","asin":"B00X"}}}]}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/items/i1/media":
			var body map[string]json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode patch: %v", err)
			}
			f.mu.Lock()
			f.patches = append(f.patches, body)
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeABS) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patches)
}

type cliTestEnv struct {
	abs        *fakeABS
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, dockerOutput string, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	isolateEnv(t)

	abs := &fakeABS{}
	server := httptest.NewServer(abs.handler(t))
	t.Cleanup(server.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithAudiobookshelf(server.URL, "token"),
		testsupport.WithStubbedDocker(dockerOutput, 0),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{abs: abs, cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}

func newNtfyServer(t *testing.T, received *bool) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*received = true
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server.URL
}
