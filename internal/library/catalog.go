package library

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Catalog is the in-memory ISBN -> Book mapping backed by a Store. Every
// successful mutation is written through to the store before returning.
type Catalog struct {
	mu     sync.RWMutex
	books  map[string]*Book
	order  []string
	store  Store
	lookup MetadataSource
	logger *zap.Logger
}

// NewCatalog builds a catalog bound to store and rehydrates it. An unreadable
// or corrupt snapshot is logged and the catalog starts empty. lookup may be
// nil, in which case AddByISBN always fails with ErrLookup.
func NewCatalog(ctx context.Context, store Store, lookup MetadataSource, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		books:  make(map[string]*Book),
		store:  store,
		lookup: lookup,
		logger: logger,
	}
	c.load(ctx)
	return c
}

func (c *Catalog) load(ctx context.Context) {
	books, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("snapshot unreadable, starting with empty catalog",
			zap.String("location", c.store.Location()),
			zap.Error(err))
		return
	}
	for i := range books {
		b := books[i].clone()
		if _, exists := c.books[b.ISBN]; !exists {
			c.order = append(c.order, b.ISBN)
		}
		c.books[b.ISBN] = &b
	}
	c.logger.Info("catalog loaded",
		zap.String("location", c.store.Location()),
		zap.Int("books", len(c.order)))
}

// Add registers a new, available book.
func (c *Catalog) Add(ctx context.Context, title string, authors []string, isbn string) (Book, error) {
	title = strings.TrimSpace(title)
	isbn = strings.TrimSpace(isbn)
	authors = cleanAuthors(authors)
	if title == "" || isbn == "" || len(authors) == 0 {
		return Book{}, fmt.Errorf("%w: title, authors and isbn are required", ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.books[isbn]; exists {
		return Book{}, fmt.Errorf("%w: isbn %s already exists", ErrDuplicate, isbn)
	}

	b := &Book{Title: title, Authors: authors, ISBN: isbn, Available: true}
	c.books[isbn] = b
	c.order = append(c.order, isbn)
	c.logger.Info("book added", zap.String("isbn", isbn), zap.String("title", title))

	if err := c.persistLocked(ctx); err != nil {
		return b.clone(), err
	}
	return b.clone(), nil
}

// AddByISBN fetches title and authors from the metadata source and adds the
// book. Missing fields fall back to UnknownTitle and UnknownAuthor; an author
// reference that cannot be resolved becomes UnknownAuthor.
func (c *Catalog) AddByISBN(ctx context.Context, isbn string) (Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return Book{}, fmt.Errorf("%w: isbn is required", ErrValidation)
	}
	if _, exists := c.Find(isbn); exists {
		return Book{}, fmt.Errorf("%w: isbn %s already exists", ErrDuplicate, isbn)
	}
	if c.lookup == nil {
		return Book{}, fmt.Errorf("%w: no metadata source configured", ErrLookup)
	}

	meta, err := c.lookup.FetchEdition(ctx, isbn)
	if err != nil {
		c.logger.Warn("edition lookup failed", zap.String("isbn", isbn), zap.Error(err))
		return Book{}, fmt.Errorf("%w: isbn %s: %v", ErrLookup, isbn, err)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = UnknownTitle
	}
	authors := c.resolveAuthors(ctx, meta)

	return c.Add(ctx, title, authors, isbn)
}

func (c *Catalog) resolveAuthors(ctx context.Context, meta Metadata) []string {
	if len(meta.Authors) == 0 {
		return []string{UnknownAuthor}
	}
	authors := make([]string, 0, len(meta.Authors))
	for _, a := range meta.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" && a.Ref != "" {
			resolved, err := c.lookup.FetchAuthorName(ctx, a.Ref)
			if err != nil {
				c.logger.Debug("author unresolved", zap.String("ref", a.Ref), zap.Error(err))
			}
			name = strings.TrimSpace(resolved)
		}
		if name == "" {
			name = UnknownAuthor
		}
		authors = append(authors, name)
	}
	return authors
}

// Borrow marks an available book as borrowed.
func (c *Catalog) Borrow(ctx context.Context, isbn string) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books[isbn]
	if !ok {
		return Book{}, fmt.Errorf("%w: isbn %s", ErrNotFound, isbn)
	}
	if !b.Available {
		return Book{}, fmt.Errorf("%w: book %s is already borrowed", ErrState, isbn)
	}
	b.Available = false
	c.logger.Info("book borrowed", zap.String("isbn", isbn))

	if err := c.persistLocked(ctx); err != nil {
		return b.clone(), err
	}
	return b.clone(), nil
}

// Return marks a borrowed book as available again.
func (c *Catalog) Return(ctx context.Context, isbn string) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books[isbn]
	if !ok {
		return Book{}, fmt.Errorf("%w: isbn %s", ErrNotFound, isbn)
	}
	if b.Available {
		return Book{}, fmt.Errorf("%w: book %s was never borrowed", ErrState, isbn)
	}
	b.Available = true
	c.logger.Info("book returned", zap.String("isbn", isbn))

	if err := c.persistLocked(ctx); err != nil {
		return b.clone(), err
	}
	return b.clone(), nil
}

// Remove deletes a book from the catalog and returns it.
func (c *Catalog) Remove(ctx context.Context, isbn string) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.books[isbn]
	if !ok {
		return Book{}, fmt.Errorf("%w: isbn %s", ErrNotFound, isbn)
	}
	delete(c.books, isbn)
	for i, key := range c.order {
		if key == isbn {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.logger.Info("book removed", zap.String("isbn", isbn))

	if err := c.persistLocked(ctx); err != nil {
		return b.clone(), err
	}
	return b.clone(), nil
}

// Find returns the book with the given ISBN.
func (c *Catalog) Find(isbn string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.books[isbn]
	if !ok {
		return Book{}, false
	}
	return b.clone(), true
}

// List returns every book in insertion order. The result is empty, never nil.
func (c *Catalog) List() []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Search returns books whose title or any author contains query, ignoring
// case. A limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) []Book {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make([]Book, 0)
	for _, isbn := range c.order {
		b := c.books[isbn]
		if !matches(b, q) {
			continue
		}
		results = append(results, b.clone())
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Stats counts available and borrowed books.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Total: len(c.books)}
	for _, b := range c.books {
		if b.Available {
			s.Available++
		}
	}
	s.Borrowed = s.Total - s.Available
	return s
}

// Len returns the number of catalogued books.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Location describes the backing snapshot.
func (c *Catalog) Location() string {
	return c.store.Location()
}

func (c *Catalog) snapshotLocked() []Book {
	books := make([]Book, 0, len(c.order))
	for _, isbn := range c.order {
		books = append(books, c.books[isbn].clone())
	}
	return books
}

// persistLocked writes the whole catalog. The caller holds c.mu.
func (c *Catalog) persistLocked(ctx context.Context) error {
	books := c.snapshotLocked()
	if err := c.store.Save(ctx, books); err != nil {
		c.logger.Error("snapshot write failed, memory is ahead of storage",
			zap.String("location", c.store.Location()),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	c.logger.Debug("snapshot saved",
		zap.String("location", c.store.Location()),
		zap.Int("books", len(books)))
	return nil
}

func matches(b *Book, q string) bool {
	if strings.Contains(strings.ToLower(b.Title), q) {
		return true
	}
	for _, a := range b.Authors {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

func cleanAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
