package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abstagsync/internal/services"
	"abstagsync/internal/services/audiobookshelf"
)

type stubLister struct {
	users []audiobookshelf.User
	err   error
}

func (s stubLister) ListUsers(context.Context) ([]audiobookshelf.User, error) {
	return s.users, s.err
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	dir, err := Resolve(context.Background(), stubLister{users: []audiobookshelf.User{
		{Username: "foo_abs", Email: "foo@bar.com"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "foo_abs", dir.Lookup("Foo@Bar.com", "backup"))
	assert.Equal(t, "foo_abs", dir.Lookup("FOO@BAR.COM", "backup"))
}

func TestResolveSkipsUsersWithoutEmail(t *testing.T) {
	dir, err := Resolve(context.Background(), stubLister{users: []audiobookshelf.User{
		{Username: "root"},
		{Username: "guest", Email: ""},
		{Username: "alice_abs", Email: "A@X.com"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, dir.Len())
	assert.Equal(t, []Entry{{Email: "a@x.com", Username: "alice_abs"}}, dir.Entries())
}

func TestLookupFallsBackForEmptyOrUnknownEmail(t *testing.T) {
	dir := NewDirectory()
	dir.Add("a@x.com", "alice_abs")

	assert.Equal(t, "bob", dir.Lookup("", "bob"))
	assert.Equal(t, "bob", dir.Lookup("  ", "bob"))
	assert.Equal(t, "carol", dir.Lookup("c@x.com", "carol"))
	assert.Equal(t, "dave", Directory{}.Lookup("a@x.com", "dave"))
}

func TestZeroDirectoryAcceptsAdd(t *testing.T) {
	var dir Directory
	require.True(t, dir.Add("Erin@X.com", "erin_abs"))
	assert.Equal(t, "erin_abs", dir.Lookup("erin@x.com", "erin"))
	assert.False(t, dir.Add("", "nobody"))
	assert.Equal(t, 1, dir.Len())
}

func TestEmailsAreLowercasedNotTrimmed(t *testing.T) {
	dir := NewDirectory()
	dir.Add(" pad@x.com", "pad_abs")

	assert.Equal(t, "pad", dir.Lookup("pad@x.com", "pad"))
	assert.Equal(t, "pad_abs", dir.Lookup(" PAD@x.com", "pad"))
}

func TestDuplicateEmailLastWins(t *testing.T) {
	dir, err := Resolve(context.Background(), stubLister{users: []audiobookshelf.User{
		{Username: "first", Email: "dup@x.com"},
		{Username: "second", Email: "DUP@x.com"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "second", dir.Lookup("dup@x.com", ""))
}

func TestResolveErrorYieldsEmptyDirectory(t *testing.T) {
	dir, err := Resolve(context.Background(), stubLister{err: errors.New("connection refused")})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrUpstream)
	assert.Equal(t, 0, dir.Len())
	assert.Equal(t, "backup", dir.Lookup("a@x.com", "backup"))
}
