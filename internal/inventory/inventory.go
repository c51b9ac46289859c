package inventory

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"abstagsync/internal/logging"
	"abstagsync/internal/services"
	"abstagsync/internal/services/audiobookshelf"
	"abstagsync/internal/tags"
)

const unknownTitle = "Unknown"

// Catalog lists libraries and their expanded items.
type Catalog interface {
	ListLibraries(ctx context.Context) ([]audiobookshelf.Library, error)
	ListLibraryItems(ctx context.Context, libraryID string) ([]audiobookshelf.LibraryItem, error)
}

// Item summarizes one library item for reconciliation.
type Item struct {
	ID        string
	LibraryID string
	ASIN      string
	Title     string
	Metadata  json.RawMessage
	Tags      tags.Set
}

// Stats counts what an indexing pass saw.
type Stats struct {
	Libraries     int
	Items         int
	SkippedNoASIN int
	Duplicates    int
}

// Inventory maps ASINs to library items. The zero value is empty.
type Inventory struct {
	items map[string]Item
	Stats Stats
}

// New returns an empty inventory.
func New() Inventory {
	return Inventory{items: make(map[string]Item)}
}

// Get returns the item indexed under asin.
func (inv Inventory) Get(asin string) (Item, bool) {
	item, ok := inv.items[asin]
	return item, ok
}

// Len returns the number of indexed ASINs.
func (inv Inventory) Len() int { return len(inv.items) }

// Put indexes item under its ASIN and reports whether an earlier item was
// replaced.
func (inv *Inventory) Put(item Item) bool {
	if inv.items == nil {
		inv.items = make(map[string]Item)
	}
	_, replaced := inv.items[item.ASIN]
	inv.items[item.ASIN] = item
	return replaced
}

// Indexer builds an Inventory from a Catalog.
type Indexer struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewIndexer constructs an indexer.
func NewIndexer(catalog Catalog, logger *slog.Logger) *Indexer {
	return &Indexer{catalog: catalog, logger: logging.NewComponentLogger(logger, "inventory")}
}

// Index reads every book library. Any failure discards the partial result:
// the caller receives an empty inventory and the error.
func (x *Indexer) Index(ctx context.Context) (Inventory, error) {
	libraries, err := x.catalog.ListLibraries(ctx)
	if err != nil {
		return New(), services.Wrap(services.ErrUpstream, "inventory", "list libraries", "", err)
	}

	inv := New()
	log := logging.WithContext(ctx, x.logger)
	for _, library := range libraries {
		if !library.IsBookLibrary() {
			log.Debug("skipping library", "library", library.Name, "media_type", library.MediaType)
			continue
		}
		inv.Stats.Libraries++

		items, err := x.catalog.ListLibraryItems(ctx, library.ID)
		if err != nil {
			return New(), services.Wrap(services.ErrUpstream, "inventory", "list items", library.Name, err)
		}
		for _, raw := range items {
			inv.Stats.Items++
			item, ok, err := summarize(raw)
			if err != nil {
				return New(), services.Wrap(services.ErrParse, "inventory", "item "+raw.ID, "", err)
			}
			if !ok {
				inv.Stats.SkippedNoASIN++
				continue
			}
			if inv.Put(item) {
				inv.Stats.Duplicates++
				log.Debug("duplicate asin, keeping later item",
					logging.FieldASIN, item.ASIN,
					logging.FieldItemID, item.ID,
				)
			}
		}
	}

	log.Info("inventory indexed",
		"libraries", inv.Stats.Libraries,
		"items", inv.Stats.Items,
		"indexed", inv.Len(),
		"skipped_no_asin", inv.Stats.SkippedNoASIN,
	)
	return inv, nil
}

// summarize extracts the indexed view of an item. ok is false when the item
// has no ASIN.
func summarize(raw audiobookshelf.LibraryItem) (Item, bool, error) {
	meta, err := raw.Media.BookMetadata()
	if err != nil {
		return Item{}, false, err
	}
	asin := strings.TrimSpace(meta.ASIN)
	if asin == "" {
		return Item{}, false, nil
	}
	title := meta.Title
	if title == "" {
		title = unknownTitle
	}
	existing := tags.New(raw.Tags...)
	existing.Add(raw.Media.Tags...)
	return Item{
		ID:        raw.ID,
		LibraryID: raw.LibraryID,
		ASIN:      asin,
		Title:     title,
		Metadata:  raw.Media.Metadata,
		Tags:      existing,
	}, true, nil
}
