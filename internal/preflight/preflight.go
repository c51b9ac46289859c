package preflight

import (
	"context"

	"abstagsync/internal/config"
	"abstagsync/internal/identity"
	"abstagsync/internal/requests"
	"abstagsync/internal/services/audiobookshelf"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Probes carries the collaborators the checks talk to. Zero fields are built
// from the config.
type Probes struct {
	Users  identity.UserLister
	Source requests.Source
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, probes Probes) []Result {
	if cfg == nil {
		return nil
	}
	if probes.Users == nil {
		probes.Users = audiobookshelf.NewFromConfig(cfg)
	}
	if probes.Source == nil {
		probes.Source = requests.NewSource(cfg)
	}

	var results []Result
	if err := cfg.EnsureDirectories(); err != nil {
		results = append(results, Result{Name: "State directory", Detail: summarizeError(err)})
	} else {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	results = append(results, CheckSystemDeps(cfg)...)
	results = append(results, CheckAudiobookshelf(ctx, probes.Users))
	results = append(results, CheckRequestSource(ctx, probes.Source))
	return results
}
