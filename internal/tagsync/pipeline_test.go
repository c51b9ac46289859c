package tagsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abstagsync/internal/logging"
	"abstagsync/internal/notifications"
	"abstagsync/internal/requests"
	"abstagsync/internal/services"
	"abstagsync/internal/services/audiobookshelf"
	"abstagsync/internal/tagsync"
	"abstagsync/internal/testsupport"
)

type fakeABS struct {
	users    []audiobookshelf.User
	items    []audiobookshelf.LibraryItem
	usersErr error
	itemsErr error
	writes   map[string][]string
	calls    int
}

func (f *fakeABS) ListUsers(context.Context) ([]audiobookshelf.User, error) {
	f.calls++
	return f.users, f.usersErr
}

func (f *fakeABS) ListLibraries(context.Context) ([]audiobookshelf.Library, error) {
	f.calls++
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return []audiobookshelf.Library{{ID: "lib", Name: "Books", MediaType: "book"}}, nil
}

func (f *fakeABS) ListLibraryItems(context.Context, string) ([]audiobookshelf.LibraryItem, error) {
	f.calls++
	return f.items, nil
}

func (f *fakeABS) UpdateMedia(_ context.Context, itemID string, _ json.RawMessage, tags []string) error {
	f.calls++
	if f.writes == nil {
		f.writes = map[string][]string{}
	}
	f.writes[itemID] = tags
	return nil
}

type fakeSource struct {
	rows []requests.Row
	err  error
}

func (f fakeSource) Rows(context.Context) ([]requests.Row, error) { return f.rows, f.err }
func (f fakeSource) Name() string                                 { return "fake" }

type fakeNotifier struct {
	results []notifications.SyncResult
}

func (f *fakeNotifier) NotifySyncCompleted(_ context.Context, r notifications.SyncResult) error {
	f.results = append(f.results, r)
	return nil
}
func (f *fakeNotifier) NotifyError(context.Context, error, string) error { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error           { return nil }

func bookItem(id, asin string, tags ...string) audiobookshelf.LibraryItem {
	return audiobookshelf.LibraryItem{
		ID:        id,
		LibraryID: "lib",
		MediaType: "book",
		Media: audiobookshelf.Media{
			Metadata: json.RawMessage(`{"title":"Book ` + id + `","asin":"` + asin + `"}`),
			Tags:     tags,
		},
	}
}

func deps(abs *fakeABS, source requests.Source, notifier *fakeNotifier) tagsync.Deps {
	return tagsync.Deps{
		Users:    abs,
		Catalog:  abs,
		Writer:   abs,
		Source:   source,
		Notifier: notifier,
		Logger:   logging.NewNop(),
	}
}

func TestRunUpdatesAndNotifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	abs := &fakeABS{
		users: []audiobookshelf.User{{Username: "alice_abs", Email: "alice@x.com"}},
		items: []audiobookshelf.LibraryItem{bookItem("i1", "B1", "Genre: SciFi"), bookItem("i2", "B2")},
	}
	notifier := &fakeNotifier{}
	source := fakeSource{rows: []requests.Row{
		{ASIN: "B1", Email: "ALICE@x.com", BackupName: "alice"},
		{ASIN: "B9", Email: "", BackupName: "zed"},
	}}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, source, notifier))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Users)
	assert.Equal(t, 2, report.Items)
	assert.Equal(t, 2, report.Requests)
	assert.Empty(t, report.Degraded)
	assert.Equal(t, 1, report.Summary.Updated)
	assert.Equal(t, 1, report.Summary.NotInLibrary)
	assert.ElementsMatch(t, []string{"Genre: SciFi", "Requester: alice_abs"}, abs.writes["i1"])
	require.Len(t, notifier.results, 1)
	assert.Equal(t, 1, notifier.results[0].Updated)
}

func TestRunWithoutRequestsIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	abs := &fakeABS{items: []audiobookshelf.LibraryItem{bookItem("i1", "B1", "Requester: old")}}
	notifier := &fakeNotifier{}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, fakeSource{}, notifier))
	require.NoError(t, err)
	assert.True(t, report.NoRequests)
	assert.Empty(t, abs.writes)
	assert.Empty(t, notifier.results)
}

func TestRunDegradesIdentityToBackupNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	abs := &fakeABS{
		usersErr: errors.New("connection refused"),
		items:    []audiobookshelf.LibraryItem{bookItem("i1", "B1")},
	}
	notifier := &fakeNotifier{}
	source := fakeSource{rows: []requests.Row{{ASIN: "B1", Email: "alice@x.com", BackupName: "alice_plex"}}}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, source, notifier))
	require.NoError(t, err)
	assert.Contains(t, report.Degraded, tagsync.ComponentIdentity)
	assert.Equal(t, []string{"Requester: alice_plex"}, abs.writes["i1"])
	require.Len(t, notifier.results, 1)
	assert.Equal(t, []string{"identity"}, notifier.results[0].Degraded)
}

func TestRunDegradesInventoryToNoWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	abs := &fakeABS{itemsErr: errors.New("status 500")}
	source := fakeSource{rows: []requests.Row{{ASIN: "B1", BackupName: "a"}}}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, source, &fakeNotifier{}))
	require.NoError(t, err)
	assert.Contains(t, report.Degraded, tagsync.ComponentInventory)
	assert.Empty(t, abs.writes)
	assert.Equal(t, 1, report.Summary.NotInLibrary)
}

func TestRunDegradesRequestsToNoRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	abs := &fakeABS{items: []audiobookshelf.LibraryItem{bookItem("i1", "B1")}}
	notifier := &fakeNotifier{}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, fakeSource{err: errors.New("no such container")}, notifier))
	require.NoError(t, err)
	assert.True(t, report.NoRequests)
	assert.Contains(t, report.Degraded, tagsync.ComponentRequests)
	assert.Equal(t, []string{"requests"}, report.DegradedComponents())
	assert.Len(t, notifier.results, 1)
}

func TestRunDryRunPlansWithoutWriting(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDryRun())
	abs := &fakeABS{items: []audiobookshelf.LibraryItem{bookItem("i1", "B1")}}
	source := fakeSource{rows: []requests.Row{{ASIN: "B1", BackupName: "a"}}}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, source, &fakeNotifier{}))
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Summary.Planned)
	assert.Empty(t, abs.writes)
}

func TestRunRejectsMissingCredentialsBeforeNetwork(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audiobookshelf.Token = ""
	abs := &fakeABS{}

	_, err := tagsync.Run(context.Background(), cfg, deps(abs, fakeSource{}, &fakeNotifier{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
	assert.Zero(t, abs.calls)
}

func TestRunSkipsWhileAnotherRunHoldsTheLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = held.Unlock() })

	abs := &fakeABS{}
	notifier := &fakeNotifier{}
	report, err := tagsync.Run(context.Background(), cfg, deps(abs, fakeSource{}, notifier))
	require.NoError(t, err)
	assert.True(t, report.LockHeld)
	assert.Zero(t, abs.calls)
	assert.Empty(t, notifier.results)
}

func TestRunContinuesWithoutLockWhenStateDirUnusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg := testsupport.NewConfig(t)
	cfg.Paths.StateDir = filepath.Join(blocker, "state")

	abs := &fakeABS{items: []audiobookshelf.LibraryItem{bookItem("i1", "B1")}}
	source := fakeSource{rows: []requests.Row{{ASIN: "B1", BackupName: "alice"}}}

	report, err := tagsync.Run(context.Background(), cfg, deps(abs, source, &fakeNotifier{}))
	require.NoError(t, err)
	assert.False(t, report.LockHeld)
	assert.Contains(t, report.LockError, "not a directory")
	assert.Equal(t, 1, report.Summary.Updated)
	assert.Equal(t, []string{"Requester: alice"}, abs.writes["i1"])
}

func TestRunAgainstHTTPServerAndDockerStub(t *testing.T) {
	var patched struct {
		path string
		body map[string]json.RawMessage
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users":
			_, _ = io.WriteString(w, `{"users":[{"id":"u1","username":"alice_abs","email":"Alice@X.com"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/libraries":
			_, _ = io.WriteString(w, `{"libraries":[{"id":"lib1","mediaType":"book"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/libraries/lib1/items":
			_, _ = io.WriteString(w, `{"results":[{"id":"i1","libraryId":"lib1","mediaType":"book","tags":["Genre: SciFi"],"media":{"metadata":{"title":"Dune","asin":"B00X","narrators":["Scott Brick"]},"tags":[]}}]}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/items/i1/media":
			patched.path = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&patched.body); err != nil {
				t.Errorf("decode patch body: %v", err)
			}
			_, _ = io.WriteString(w, `{"updated":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithAudiobookshelf(server.URL, "token"),
		testsupport.WithStubbedDocker("B00X|alice@x.com|alice_plex\n", 0),
	)

	report, err := tagsync.Run(context.Background(), cfg, tagsync.Deps{Logger: logging.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Updated)
	assert.Equal(t, "/api/items/i1/media", patched.path)
	assert.JSONEq(t, `["Genre: SciFi","Requester: alice_abs"]`, string(patched.body["tags"]))
	assert.JSONEq(t, `{"title":"Dune","asin":"B00X","narrators":["Scott Brick"]}`, string(patched.body["metadata"]))
}
