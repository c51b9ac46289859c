package config

import (
	"fmt"
	"net/url"

	"abstagsync/internal/services"
)

// Validate ensures the configuration is usable. Every failure carries
// services.ErrConfiguration so callers can abort before any network activity.
func (c *Config) Validate() error {
	if err := c.validateAudiobookshelf(); err != nil {
		return err
	}
	if err := c.validateReadMeABook(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAudiobookshelf() error {
	if c.Audiobookshelf.URL == "" || c.Audiobookshelf.Token == "" {
		return fmt.Errorf("%w: missing ABS_URL or ABS_TOKEN; export them or set audiobookshelf.url and audiobookshelf.token in %s (create with 'abs-tag-sync config init')",
			services.ErrConfiguration, displayConfigPath())
	}
	parsed, err := url.Parse(c.Audiobookshelf.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: audiobookshelf.url %q must be an absolute http(s) URL", services.ErrConfiguration, c.Audiobookshelf.URL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: audiobookshelf.url scheme %q is not http or https", services.ErrConfiguration, parsed.Scheme)
	}
	return nil
}

func (c *Config) validateReadMeABook() error {
	switch c.ReadMeABook.Source {
	case SourceDocker:
		return nil
	case SourcePostgres:
		if c.ReadMeABook.DSN == "" {
			return fmt.Errorf("%w: readmeabook.dsn (RMAB_DSN) must be set when readmeabook.source is %q", services.ErrConfiguration, SourcePostgres)
		}
		return nil
	default:
		return fmt.Errorf("%w: readmeabook.source must be %q or %q, got %q", services.ErrConfiguration, SourceDocker, SourcePostgres, c.ReadMeABook.Source)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", services.ErrConfiguration, c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn, or error, got %q", services.ErrConfiguration, c.Logging.Level)
	}
	return nil
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}
