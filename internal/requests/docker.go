package requests

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"abstagsync/internal/config"
	"abstagsync/internal/services"
)

// Executor abstracts command execution for testability. onStdout receives
// each stdout line; stderr is returned inside the error when the command
// fails.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// DockerSource reads rows by running psql inside the ReadMeABook container.
type DockerSource struct {
	binary    string
	container string
	dbUser    string
	dbName    string
	timeout   time.Duration
	exec      Executor
}

// DockerOption configures a DockerSource.
type DockerOption func(*DockerSource)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) DockerOption {
	return func(s *DockerSource) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// NewDockerSource constructs a source from the readmeabook config section.
func NewDockerSource(cfg *config.Config, opts ...DockerOption) *DockerSource {
	s := &DockerSource{
		binary:    cfg.ReadMeABook.DockerBinary,
		container: cfg.ReadMeABook.Container,
		dbUser:    cfg.ReadMeABook.DBUser,
		dbName:    cfg.ReadMeABook.DBName,
		timeout:   cfg.QueryTimeout(),
		exec:      commandExecutor{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs and errors.
func (s *DockerSource) Name() string {
	return "docker exec " + s.container
}

// Args returns the docker arguments used for the query.
func (s *DockerSource) Args() []string {
	return []string{
		"exec", s.container,
		"psql", "-U", s.dbUser, "-d", s.dbName,
		"-t", "-A", "-F", fieldSeparator,
		"-c", psqlQuery(),
	}
}

// Rows runs the query and parses its output. A single malformed row fails
// the whole read.
func (s *DockerSource) Rows(ctx context.Context) ([]Row, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var rows []Row
	var parseErr error
	err := s.exec.Run(ctx, s.binary, s.Args(), func(line string) {
		if parseErr != nil {
			return
		}
		row, ok, err := ParseLine(line)
		if err != nil {
			parseErr = err
			return
		}
		if ok {
			rows = append(rows, row)
		}
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "requests", s.binary+" exec psql", "", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return rows, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, remaining: 4096}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var scanErr error
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onStdout != nil {
			onStdout(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		scanErr = err
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && detail != "" {
			return fmt.Errorf("%w: %s", waitErr, detail)
		}
		return fmt.Errorf("wait command: %w", waitErr)
	}
	return nil
}

// limitedWriter keeps the first bytes written and discards the rest.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if l.remaining <= 0 {
		return n, nil
	}
	if len(p) > l.remaining {
		p = p[:l.remaining]
	}
	written, err := l.w.Write(p)
	l.remaining -= written
	if err != nil {
		return written, err
	}
	return n, nil
}
