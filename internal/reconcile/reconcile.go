package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"

	"abstagsync/internal/identity"
	"abstagsync/internal/inventory"
	"abstagsync/internal/logging"
	"abstagsync/internal/requests"
	"abstagsync/internal/services"
	"abstagsync/internal/tags"
)

// ItemWriter persists an item's metadata and tags.
type ItemWriter interface {
	UpdateMedia(ctx context.Context, itemID string, metadata json.RawMessage, tags []string) error
}

// Status describes what happened to one requested ASIN.
type Status string

const (
	StatusUpdated      Status = "updated"
	StatusPlanned      Status = "planned"
	StatusFailed       Status = "failed"
	StatusUnchanged    Status = "unchanged"
	StatusNotInLibrary Status = "not_in_library"
)

// Change records the outcome for one ASIN.
type Change struct {
	ASIN       string   `json:"asin"`
	ItemID     string   `json:"item_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	Requesters []string `json:"requesters"`
	Before     []string `json:"before,omitempty"`
	After      []string `json:"after,omitempty"`
	Status     Status   `json:"status"`
	Error      string   `json:"error,omitempty"`
}

// Summary counts outcomes across a reconciliation pass.
type Summary struct {
	Requested    int      `json:"requested"`
	Matched      int      `json:"matched"`
	NotInLibrary int      `json:"not_in_library"`
	Unchanged    int      `json:"unchanged"`
	Updated      int      `json:"updated"`
	Planned      int      `json:"planned"`
	Failed       int      `json:"failed"`
	Changes      []Change `json:"changes"`
}

// Wrote reports whether any item was written.
func (s Summary) Wrote() bool { return s.Updated > 0 }

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDryRun logs planned changes instead of writing them.
func WithDryRun(enabled bool) Option {
	return func(r *Reconciler) { r.dryRun = enabled }
}

// Reconciler applies requester tags to library items.
type Reconciler struct {
	writer ItemWriter
	logger *slog.Logger
	dryRun bool
}

// New constructs a reconciler.
func New(writer ItemWriter, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{writer: writer, logger: logging.NewComponentLogger(logger, "reconcile")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetTags returns the requester tags for the given requesters, resolving
// each email through dir and falling back to the backup name. An empty name
// still yields the bare prefix tag.
func TargetTags(dir identity.Directory, requesters []requests.Requester) tags.Set {
	target := tags.New()
	for _, req := range requesters {
		target.Add(tags.RequesterTag(dir.Lookup(req.Email, req.BackupName)))
	}
	return target
}

// FinalTags replaces the requester tags in existing with target.
func FinalTags(existing, target tags.Set) tags.Set {
	return existing.WithoutRequesters().Union(target)
}

// Reconcile processes every ASIN in groups in order. Write failures are
// logged and counted; they never stop the pass.
func (r *Reconciler) Reconcile(ctx context.Context, dir identity.Directory, inv inventory.Inventory, groups requests.Groups) Summary {
	var summary Summary
	for _, asin := range groups.ASINs() {
		summary.Requested++
		change := r.reconcileOne(services.WithASIN(ctx, asin), dir, inv, asin, groups.Requesters(asin))
		switch change.Status {
		case StatusNotInLibrary:
			summary.NotInLibrary++
			continue
		case StatusUnchanged:
			summary.Unchanged++
		case StatusUpdated:
			summary.Updated++
		case StatusPlanned:
			summary.Planned++
		case StatusFailed:
			summary.Failed++
		}
		summary.Matched++
		summary.Changes = append(summary.Changes, change)
	}
	return summary
}

func (r *Reconciler) reconcileOne(ctx context.Context, dir identity.Directory, inv inventory.Inventory, asin string, requesters []requests.Requester) Change {
	logger := logging.WithContext(ctx, r.logger)
	change := Change{ASIN: asin, Status: StatusNotInLibrary}

	item, ok := inv.Get(asin)
	if !ok {
		logger.Debug("requested title not in library")
		return change
	}

	target := TargetTags(dir, requesters)
	existing := item.Tags
	if existing == nil {
		existing = tags.New()
	}
	final := FinalTags(existing, target)

	change.ItemID = item.ID
	change.Title = item.Title
	change.Requesters = target.Sorted()
	change.Before = existing.Sorted()
	change.After = final.Sorted()

	logger = logger.With(slog.String(logging.FieldItemID, item.ID), slog.String("title", item.Title))
	if final.Equal(existing) {
		change.Status = StatusUnchanged
		logger.Debug("requester tags already current")
		return change
	}

	if r.dryRun {
		change.Status = StatusPlanned
		logger.Info("dry run: would update tags",
			slog.Any("before", change.Before),
			slog.Any("after", change.After))
		return change
	}

	if err := r.writer.UpdateMedia(ctx, item.ID, item.Metadata, change.After); err != nil {
		change.Status = StatusFailed
		change.Error = err.Error()
		logger.Warn("tag update failed",
			logging.Error(err),
			slog.String(logging.FieldImpact, "item keeps its previous requester tags until the next run"))
		return change
	}
	change.Status = StatusUpdated
	logger.Info("updated tags", slog.Any("tags", change.After))
	return change
}
