package identity

import (
	"context"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"abstagsync/internal/services"
	"abstagsync/internal/services/audiobookshelf"
)

// UserLister lists media-server accounts.
type UserLister interface {
	ListUsers(ctx context.Context) ([]audiobookshelf.User, error)
}

// Entry is one email to username mapping.
type Entry struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Directory maps lowercased emails to usernames. The zero value is an empty
// directory ready for use.
type Directory struct {
	byEmail map[string]string
}

// NewDirectory returns an empty directory.
func NewDirectory() Directory {
	return Directory{byEmail: make(map[string]string)}
}

// Add records a user. It returns false when the email is empty. A repeated
// email replaces the earlier username.
func (d *Directory) Add(email, username string) bool {
	key := foldEmail(email)
	if key == "" {
		return false
	}
	if d.byEmail == nil {
		d.byEmail = make(map[string]string)
	}
	d.byEmail[key] = username
	return true
}

// Lookup returns the username for email, or fallback when the email is empty
// or unknown.
func (d Directory) Lookup(email, fallback string) string {
	key := foldEmail(email)
	if key == "" {
		return fallback
	}
	if username, ok := d.byEmail[key]; ok {
		return username
	}
	return fallback
}

// Len returns the number of mapped emails.
func (d Directory) Len() int { return len(d.byEmail) }

// Entries returns the mappings ordered by email.
func (d Directory) Entries() []Entry {
	out := make([]Entry, 0, len(d.byEmail))
	for email, username := range d.byEmail {
		out = append(out, Entry{Email: email, Username: username})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Resolve builds a directory from every user the lister returns. On failure
// it returns an empty directory alongside the error so callers can continue
// with backup names.
func Resolve(ctx context.Context, lister UserLister) (Directory, error) {
	dir := NewDirectory()
	users, err := lister.ListUsers(ctx)
	if err != nil {
		return dir, services.Wrap(services.ErrUpstream, "identity", "list users", "", err)
	}
	for _, user := range users {
		dir.Add(user.Email, user.Username)
	}
	return dir, nil
}

// foldEmail lowercases without trimming, so " a@x.com" and "a@x.com" are
// different keys.
func foldEmail(email string) string {
	if email == "" {
		return ""
	}
	return cases.Lower(language.Und).String(email)
}
