package audiobookshelf

import (
	"encoding/json"
	"fmt"
)

// MediaTypeBook is the library media type holding audiobooks.
const MediaTypeBook = "book"

// User is an Audiobookshelf account as returned by GET /api/users.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}

// Library is a library as returned by GET /api/libraries.
type Library struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
}

// IsBookLibrary reports whether the library holds audiobooks.
func (l Library) IsBookLibrary() bool {
	return l.MediaType == MediaTypeBook
}

// LibraryItem is an expanded library item. Tags may live on the item or on
// its media; both are optional.
type LibraryItem struct {
	ID        string   `json:"id"`
	LibraryID string   `json:"libraryId"`
	MediaType string   `json:"mediaType"`
	Tags      []string `json:"tags"`
	Media     Media    `json:"media"`
}

// Media is the media section of an expanded library item.
type Media struct {
	Metadata json.RawMessage `json:"metadata"`
	Tags     []string        `json:"tags"`
}

// BookMetadata holds the metadata fields the sync reads. Everything else in
// the metadata object is carried untouched in Media.Metadata.
type BookMetadata struct {
	Title string `json:"title"`
	ASIN  string `json:"asin"`
}

// BookMetadata decodes the fields of interest from the raw metadata object.
// A missing or null metadata object yields zero values.
func (m Media) BookMetadata() (BookMetadata, error) {
	var meta BookMetadata
	if len(m.Metadata) == 0 || string(m.Metadata) == "null" {
		return meta, nil
	}
	if err := json.Unmarshal(m.Metadata, &meta); err != nil {
		return BookMetadata{}, fmt.Errorf("decode media metadata: %w", err)
	}
	return meta, nil
}

type usersResponse struct {
	Users []User `json:"users"`
}

type librariesResponse struct {
	Libraries []Library `json:"libraries"`
}

type itemsResponse struct {
	Results []LibraryItem `json:"results"`
}

type updateMediaRequest struct {
	Metadata json.RawMessage `json:"metadata"`
	Tags     []string        `json:"tags"`
}
