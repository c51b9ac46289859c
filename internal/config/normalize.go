package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAudiobookshelf()
	c.normalizeReadMeABook()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeAudiobookshelf() {
	c.Audiobookshelf.URL = strings.TrimRight(strings.TrimSpace(c.Audiobookshelf.URL), "/")
	c.Audiobookshelf.Token = strings.TrimSpace(c.Audiobookshelf.Token)
	if c.Audiobookshelf.TimeoutSeconds <= 0 {
		c.Audiobookshelf.TimeoutSeconds = defaultABSTimeoutSeconds
	}
}

func (c *Config) normalizeReadMeABook() {
	r := &c.ReadMeABook
	r.Source = strings.ToLower(strings.TrimSpace(r.Source))
	if r.Source == "" {
		r.Source = defaultSource
	}
	r.Container = strings.TrimSpace(r.Container)
	if r.Container == "" {
		r.Container = defaultContainer
	}
	r.DockerBinary = strings.TrimSpace(r.DockerBinary)
	if r.DockerBinary == "" {
		r.DockerBinary = defaultDockerBinary
	}
	r.DBUser = strings.TrimSpace(r.DBUser)
	if r.DBUser == "" {
		r.DBUser = defaultDBUser
	}
	r.DBName = strings.TrimSpace(r.DBName)
	if r.DBName == "" {
		r.DBName = defaultDBName
	}
	r.DSN = strings.TrimSpace(r.DSN)
	if r.QueryTimeoutSeconds <= 0 {
		r.QueryTimeoutSeconds = defaultQueryTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		c.Logging.File = ""
		return nil
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
