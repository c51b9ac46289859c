package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Audiobookshelf contains connection settings for the media server.
type Audiobookshelf struct {
	URL            string `toml:"url" env:"ABS_URL"`
	Token          string `toml:"token" env:"ABS_TOKEN"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"ABS_TIMEOUT_SECONDS"`
}

// ReadMeABook contains settings for reading request records.
type ReadMeABook struct {
	// Source selects how rows are read: "docker" runs psql inside the
	// container, "postgres" connects to the database directly.
	Source              string `toml:"source" env:"RMAB_SOURCE"`
	Container           string `toml:"container" env:"RMAB_CONTAINER"`
	DockerBinary        string `toml:"docker_binary" env:"RMAB_DOCKER_BINARY"`
	DBUser              string `toml:"db_user" env:"RMAB_DB_USER"`
	DBName              string `toml:"db_name" env:"RMAB_DB_NAME"`
	DSN                 string `toml:"dsn" env:"RMAB_DSN"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds" env:"RMAB_QUERY_TIMEOUT_SECONDS"`
}

// Sync contains reconciliation behaviour switches.
type Sync struct {
	DryRun bool `toml:"dry_run" env:"SYNC_DRY_RUN"`
}

// Paths contains local filesystem locations.
type Paths struct {
	StateDir string `toml:"state_dir" env:"ABS_TAG_SYNC_STATE_DIR"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic" env:"NTFY_TOPIC"`
	RequestTimeout int    `toml:"request_timeout" env:"NTFY_REQUEST_TIMEOUT"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"LOG_FORMAT"`
	Level  string `toml:"level" env:"LOG_LEVEL"`
	File   string `toml:"file" env:"LOG_FILE"`
}

// Config encapsulates all configuration values for abs-tag-sync.
//
// Configuration sections by subsystem:
//   - Audiobookshelf: media server URL, token, and request timeout
//   - ReadMeABook: request-tracker access (docker exec or direct DSN)
//   - Sync: dry-run switch
//   - Paths: state directory holding the run lock
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and optional file
type Config struct {
	Audiobookshelf Audiobookshelf `toml:"audiobookshelf"`
	ReadMeABook    ReadMeABook    `toml:"readmeabook"`
	Sync           Sync           `toml:"sync"`
	Paths          Paths          `toml:"paths"`
	Notifications  Notifications  `toml:"notifications"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file, then applies
// .env and environment overrides. A missing file is not an error: the
// environment alone is enough to run.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env from the working directory when present. Variables
// already exported in the process environment win.
func loadDotEnv() error {
	path := dotEnvFile
	if override, ok := os.LookupEnv("ABS_TAG_SYNC_ENV_FILE"); ok && strings.TrimSpace(override) != "" {
		path = strings.TrimSpace(override)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory used for the run lock.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// LockPath returns the lock file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sync.lock")
}

// HTTPTimeout returns the per-request timeout for Audiobookshelf calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Audiobookshelf.TimeoutSeconds) * time.Second
}

// QueryTimeout returns the timeout for the request-tracker query.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.ReadMeABook.QueryTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
