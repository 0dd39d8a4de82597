package library

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks librarian/internal/library Store,MetadataSource

// Store persists full catalog snapshots.
type Store interface {
	// Load returns every persisted book in insertion order. A store with no
	// snapshot yet returns an empty slice and no error.
	Load(ctx context.Context) ([]Book, error)
	// Save replaces the persisted snapshot with books.
	Save(ctx context.Context, books []Book) error
	// Location describes where snapshots live, for health output.
	Location() string
}

// Metadata is the bibliographic data returned for an ISBN.
type Metadata struct {
	Title   string
	Authors []AuthorRef
}

// AuthorRef carries either a display name or a reference that must be
// resolved with MetadataSource.FetchAuthorName.
type AuthorRef struct {
	Name string
	Ref  string
}

// MetadataSource looks up bibliographic metadata by ISBN.
type MetadataSource interface {
	FetchEdition(ctx context.Context, isbn string) (Metadata, error)
	FetchAuthorName(ctx context.Context, ref string) (string, error)
}
