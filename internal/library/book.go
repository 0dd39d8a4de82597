package library

import (
	"fmt"
	"strings"
)

const (
	// UnknownTitle is used when the lookup returns no title.
	UnknownTitle = "Unknown Title"
	// UnknownAuthor is used when the lookup returns no authors or an author cannot be resolved.
	UnknownAuthor = "Unknown Author"
)

// Book represents one catalogued book and its lending status.
type Book struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	ISBN      string   `json:"isbn"`
	Available bool     `json:"available"`
}

// String renders the book for human display.
func (b Book) String() string {
	status := "Available"
	if !b.Available {
		status = "Borrowed"
	}
	return fmt.Sprintf("%s by %s (ISBN: %s) - %s", b.Title, strings.Join(b.Authors, ", "), b.ISBN, status)
}

func (b Book) clone() Book {
	b.Authors = append([]string(nil), b.Authors...)
	return b
}

// snapshotRecord is the persisted form of a Book. Available is a pointer so
// that snapshots written before the flag existed load as available.
type snapshotRecord struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	ISBN      string   `json:"isbn"`
	Available *bool    `json:"available,omitempty"`
}

func toSnapshot(b Book) snapshotRecord {
	available := b.Available
	return snapshotRecord{
		Title:     b.Title,
		Authors:   append([]string(nil), b.Authors...),
		ISBN:      b.ISBN,
		Available: &available,
	}
}

func fromSnapshot(r snapshotRecord) (Book, error) {
	if r.ISBN == "" {
		return Book{}, fmt.Errorf("snapshot record missing isbn")
	}
	if r.Title == "" {
		return Book{}, fmt.Errorf("snapshot record %s missing title", r.ISBN)
	}
	if len(r.Authors) == 0 {
		return Book{}, fmt.Errorf("snapshot record %s missing authors", r.ISBN)
	}
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return Book{
		Title:     r.Title,
		Authors:   append([]string(nil), r.Authors...),
		ISBN:      r.ISBN,
		Available: available,
	}, nil
}

// Stats summarises lending status across the catalog.
type Stats struct {
	Total     int `json:"total_books"`
	Available int `json:"available_books"`
	Borrowed  int `json:"borrowed_books"`
}
