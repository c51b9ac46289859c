package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"abstagsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp state directory per
// test. It defaults the required credentials and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Audiobookshelf.URL = "http://127.0.0.1:1"
	cfgVal.Audiobookshelf.Token = "test"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAudiobookshelf points the test config at a media server, usually an
// httptest server URL.
func WithAudiobookshelf(url, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audiobookshelf.URL = strings.TrimRight(url, "/")
		b.cfg.Audiobookshelf.Token = token
	}
}

// WithDryRun enables dry-run mode.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.DryRun = true
	}
}

// WithNtfyTopic sets the notification topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithStubbedDocker writes a stub docker executable that prints output and
// exits with exitCode, and points the config at it.
func WithStubbedDocker(output string, exitCode int) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		dataPath := filepath.Join(binDir, "docker.out")
		if err := os.WriteFile(dataPath, []byte(output), 0o644); err != nil {
			b.t.Fatalf("write stub output: %v", err)
		}
		script := "#!/bin/sh\ncat '" + dataPath + "'\n"
		if exitCode != 0 {
			script += "echo 'stub failure' >&2\n"
		}
		script += "exit " + strconv.Itoa(exitCode) + "\n"
		target := filepath.Join(binDir, "docker")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub docker: %v", err)
		}
		b.cfg.ReadMeABook.DockerBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
