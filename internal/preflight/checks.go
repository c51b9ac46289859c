package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"abstagsync/internal/config"
	"abstagsync/internal/deps"
	"abstagsync/internal/identity"
	"abstagsync/internal/requests"
	"abstagsync/internal/services/audiobookshelf"
)

const checkTimeout = 15 * time.Second

// CheckAudiobookshelf verifies connectivity and that the token may list
// users.
func CheckAudiobookshelf(ctx context.Context, users identity.UserLister) Result {
	const name = "Audiobookshelf"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	dir, err := identity.Resolve(checkCtx, users)
	if err != nil {
		if errors.Is(err, audiobookshelf.ErrUnauthorized) {
			return Result{Name: name, Detail: "auth failed (invalid api token)"}
		}
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d users with email)", dir.Len())}
}

// CheckRequestSource runs the request query once and reports the row count.
func CheckRequestSource(ctx context.Context, source requests.Source) Result {
	name := "ReadMeABook (" + source.Name() + ")"

	groups, err := requests.Group(ctx, source)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d requests across %d titles", groups.Rows(), groups.Len())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps checks the external binaries the configured request source
// needs. The postgres source needs none.
func CheckSystemDeps(cfg *config.Config) []Result {
	if cfg.ReadMeABook.Source != config.SourceDocker {
		return nil
	}
	bin := deps.Docker(cfg)
	if !bin.Available {
		return []Result{{Name: bin.Name, Detail: bin.Detail}}
	}
	return []Result{{Name: bin.Name, Passed: true, Detail: bin.Path}}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (unreachable)"
	}
	return err.Error()
}
