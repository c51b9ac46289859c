package requests_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"abstagsync/internal/requests"
	"abstagsync/internal/services"
	"abstagsync/internal/testsupport"
)

type stubExecutor struct {
	lines  []string
	err    error
	calls  int
	binary string
	args   [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	s.calls++
	s.binary = binary
	cloned := append([]string(nil), args...)
	s.args = append(s.args, cloned)
	for _, line := range s.lines {
		onStdout(line)
	}
	return s.err
}

func TestDockerSourceArgs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.ReadMeABook.Container = "rmab"
	exec := &stubExecutor{}
	source := requests.NewDockerSource(cfg, requests.WithExecutor(exec))

	if _, err := source.Rows(context.Background()); err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if exec.calls != 1 {
		t.Fatalf("expected one call, got %d", exec.calls)
	}
	if exec.binary != "docker" {
		t.Fatalf("binary = %q, want docker", exec.binary)
	}
	args := exec.args[0]
	wantPrefix := []string{"exec", "rmab", "psql", "-U", "postgres", "-d", "readmeabook", "-t", "-A", "-F", "|", "-c"}
	if len(args) != len(wantPrefix)+1 {
		t.Fatalf("unexpected args: %v", args)
	}
	for i, want := range wantPrefix {
		if args[i] != want {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want)
		}
	}
	query := args[len(args)-1]
	for _, fragment := range []string{"a.audible_asin", "u.plex_email", "u.plex_username", "IN ('available', 'downloaded')", "IS NOT NULL"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("query missing %q: %s", fragment, query)
		}
	}
	if source.Name() != "docker exec rmab" {
		t.Fatalf("Name = %q", source.Name())
	}
}

func TestDockerSourceParsesRowsAndSkipsNoise(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &stubExecutor{lines: []string{"B1|alice@x.com|alice", "", "B2||bob", "   "}}
	source := requests.NewDockerSource(cfg, requests.WithExecutor(exec))

	rows, err := source.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	want := []requests.Row{
		{ASIN: "B1", Email: "alice@x.com", BackupName: "alice"},
		{ASIN: "B2", Email: "", BackupName: "bob"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestDockerSourceMalformedRowFailsRead(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &stubExecutor{lines: []string{"B1|alice@x.com|alice", "B2|broken"}}
	source := requests.NewDockerSource(cfg, requests.WithExecutor(exec))

	rows, err := source.Rows(context.Background())
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestDockerSourceExecutorErrorIsExternalTool(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := requests.NewDockerSource(cfg, requests.WithExecutor(&stubExecutor{err: errors.New("no such container")}))

	_, err := source.Rows(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "no such container") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestDockerSourceRunsRealProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedDocker("B1|alice@x.com|alice\nB1||bob\n", 0))
	groups, err := requests.Group(context.Background(), requests.NewDockerSource(cfg))
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	if groups.Len() != 1 || len(groups.Requesters("B1")) != 2 {
		t.Fatalf("unexpected groups: %v", groups.ASINs())
	}
}

func TestDockerSourceProcessFailureCarriesStderr(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedDocker("", 3))
	_, err := requests.NewDockerSource(cfg).Rows(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "stub failure") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestNewSourceSelectsPostgres(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, ok := requests.NewSource(cfg).(*requests.DockerSource); !ok {
		t.Fatal("expected docker source by default")
	}
	cfg.ReadMeABook.Source = "postgres"
	cfg.ReadMeABook.DSN = "postgres://rmab@localhost/readmeabook"
	source, ok := requests.NewSource(cfg).(*requests.PostgresSource)
	if !ok {
		t.Fatal("expected postgres source")
	}
	if source.Name() != "postgres" {
		t.Fatalf("Name = %q", source.Name())
	}
}

func TestPostgresSourceRejectsBadDSN(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.ReadMeABook.DSN = "postgres://%zz"
	_, err := requests.NewPostgresSource(cfg).Rows(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
