package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"abstagsync/internal/config"
)

// Binary reports whether an external command can be executed.
type Binary struct {
	Name      string
	Command   string
	Path      string
	Available bool
	Detail    string
}

// Docker checks the binary the docker request source execs psql through.
func Docker(cfg *config.Config) Binary {
	return Lookup("Docker", cfg.ReadMeABook.DockerBinary)
}

// Lookup resolves command through PATH, or checks it in place when it
// contains a path separator.
func Lookup(name, command string) Binary {
	bin := Binary{Name: name, Command: strings.TrimSpace(command)}
	if bin.Command == "" {
		bin.Detail = "command not configured"
		return bin
	}
	path, err := exec.LookPath(bin.Command)
	switch {
	case errors.Is(err, exec.ErrNotFound):
		bin.Detail = fmt.Sprintf("%q not found on PATH", bin.Command)
	case err != nil:
		bin.Detail = err.Error()
	default:
		bin.Path = path
		bin.Available = true
	}
	return bin
}
