package tagsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"abstagsync/internal/config"
	"abstagsync/internal/identity"
	"abstagsync/internal/inventory"
	"abstagsync/internal/logging"
	"abstagsync/internal/notifications"
	"abstagsync/internal/reconcile"
	"abstagsync/internal/requests"
	"abstagsync/internal/services"
	"abstagsync/internal/services/audiobookshelf"
)

// Component names used in logs and Report.Degraded.
const (
	ComponentIdentity  = "identity"
	ComponentInventory = "inventory"
	ComponentRequests  = "requests"
)

// Deps holds the collaborators of a run. Zero fields are built from the
// config by Run.
type Deps struct {
	Users    identity.UserLister
	Catalog  inventory.Catalog
	Writer   reconcile.ItemWriter
	Source   requests.Source
	Notifier notifications.Service
	Logger   *slog.Logger
	Now      func() time.Time
}

// Report describes the outcome of one run.
type Report struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	DryRun     bool              `json:"dry_run"`
	Users      int               `json:"users"`
	Items      int               `json:"items"`
	Requests   int               `json:"requests"`
	Rows       int               `json:"rows"`
	Degraded   map[string]string `json:"degraded,omitempty"`
	NoRequests bool              `json:"no_requests"`
	LockHeld   bool              `json:"lock_held,omitempty"`
	LockError  string            `json:"lock_error,omitempty"`
	Summary    reconcile.Summary `json:"summary"`
}

// DegradedComponents returns the names of components that fell back to empty
// results, in pipeline order.
func (r Report) DegradedComponents() []string {
	var out []string
	for _, name := range []string{ComponentIdentity, ComponentInventory, ComponentRequests} {
		if _, ok := r.Degraded[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (d Deps) withDefaults(cfg *config.Config) Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Users == nil || d.Catalog == nil || d.Writer == nil {
		client := audiobookshelf.NewFromConfig(cfg)
		if d.Users == nil {
			d.Users = client
		}
		if d.Catalog == nil {
			d.Catalog = client
		}
		if d.Writer == nil {
			d.Writer = client
		}
	}
	if d.Source == nil {
		d.Source = requests.NewSource(cfg)
	}
	if d.Notifier == nil {
		d.Notifier = notifications.NewService(cfg)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Run executes one pass. The returned error is non-nil only for configuration
// errors. When another run holds the lock the pass is skipped and
// Report.LockHeld is set.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (Report, error) {
	if cfg == nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "tagsync", "run", "config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	deps = deps.withDefaults(cfg)

	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: deps.Now(),
		DryRun:    cfg.Sync.DryRun,
		Degraded:  map[string]string{},
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(deps.Logger, "tagsync"))

	release, busy := acquireLock(cfg, logger, &report)
	if busy {
		report.LockHeld = true
		report.Duration = deps.Now().Sub(report.StartedAt)
		logger.Info("another sync run holds the lock; skipping", slog.String("lock", cfg.LockPath()))
		return report, nil
	}
	defer release()

	logger.Info("starting tag sync", slog.Bool("dry_run", report.DryRun))

	degrade := func(component, impact string, err error) {
		report.Degraded[component] = err.Error()
		logger.Warn(component+" unavailable; continuing with empty result",
			slog.String("degraded", component),
			slog.String("error_category", services.Category(err)),
			slog.String(logging.FieldImpact, impact),
			logging.Error(err))
	}

	dir, err := identity.Resolve(ctx, deps.Users)
	if err != nil {
		if services.IsFatal(err) {
			return report, err
		}
		degrade(ComponentIdentity, "requesters fall back to their ReadMeABook usernames", err)
		dir = identity.NewDirectory()
	}
	report.Users = dir.Len()

	inv, err := inventory.NewIndexer(deps.Catalog, deps.Logger).Index(ctx)
	if err != nil {
		if services.IsFatal(err) {
			return report, err
		}
		degrade(ComponentInventory, "no library items will be updated", err)
		inv = inventory.New()
	}
	report.Items = inv.Len()

	groups, err := requests.Group(ctx, deps.Source)
	if err != nil {
		if services.IsFatal(err) {
			return report, err
		}
		degrade(ComponentRequests, "no requests to sync", err)
		groups = requests.Groups{}
	}
	report.Requests = groups.Len()
	report.Rows = groups.Rows()

	if groups.Len() == 0 {
		report.NoRequests = true
		report.Duration = deps.Now().Sub(report.StartedAt)
		logger.Info("no requests found to sync")
		notify(ctx, logger, deps.Notifier, report)
		return report, nil
	}

	rec := reconcile.New(deps.Writer, deps.Logger, reconcile.WithDryRun(cfg.Sync.DryRun))
	report.Summary = rec.Reconcile(ctx, dir, inv, groups)
	report.Duration = deps.Now().Sub(report.StartedAt)

	logger.Info("sync complete",
		slog.Int("requested", report.Summary.Requested),
		slog.Int("updated", report.Summary.Updated),
		slog.Int("planned", report.Summary.Planned),
		slog.Int("unchanged", report.Summary.Unchanged),
		slog.Int("not_in_library", report.Summary.NotInLibrary),
		slog.Int("failed", report.Summary.Failed),
		slog.Duration("duration", report.Duration))
	notify(ctx, logger, deps.Notifier, report)
	return report, nil
}

// notify posts a summary when the run changed, planned, failed, or degraded
// anything.
func notify(ctx context.Context, logger *slog.Logger, svc notifications.Service, report Report) {
	s := report.Summary
	if s.Updated == 0 && s.Planned == 0 && s.Failed == 0 && len(report.Degraded) == 0 {
		return
	}
	err := svc.NotifySyncCompleted(ctx, notifications.SyncResult{
		Updated:      s.Updated,
		Planned:      s.Planned,
		Unchanged:    s.Unchanged,
		NotInLibrary: s.NotInLibrary,
		Failed:       s.Failed,
		Degraded:     report.DegradedComponents(),
		DryRun:       report.DryRun,
		Duration:     report.Duration,
	})
	if err != nil {
		logger.Warn("sync notification failed",
			logging.Error(err),
			slog.String(logging.FieldImpact, "run summary not delivered"))
	}
}

// acquireLock takes the run lock. busy is true when another process holds it.
// An unusable state directory or lock file leaves the pass unlocked and is
// recorded in report.LockError.
func acquireLock(cfg *config.Config, logger *slog.Logger, report *Report) (release func(), busy bool) {
	unlocked := func(err error) (func(), bool) {
		report.LockError = err.Error()
		logger.Warn("run lock unavailable; continuing without it",
			slog.String("lock", cfg.LockPath()),
			slog.String(logging.FieldImpact, "concurrent runs on this host are not prevented"),
			logging.Error(err))
		return func() {}, false
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return unlocked(err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return unlocked(fmt.Errorf("acquire lock: %w", err))
	}
	if !ok {
		return func() {}, true
	}
	return func() { _ = lock.Unlock() }, false
}
