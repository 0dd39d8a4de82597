package openlibrary

import (
	"context"
	"fmt"

	"librarian/internal/library"
)

// API is the subset of OpenLibrary the catalog needs. Both Client and
// CachedClient implement it.
type API interface {
	GetEdition(ctx context.Context, isbn string) (*Edition, error)
	GetAuthor(ctx context.Context, authorKey string) (*AuthorDetails, error)
}

// Source adapts an API to library.MetadataSource.
type Source struct {
	api API
}

func NewSource(api API) *Source {
	return &Source{api: api}
}

func (s *Source) FetchEdition(ctx context.Context, isbn string) (library.Metadata, error) {
	ed, err := s.api.GetEdition(ctx, isbn)
	if err != nil {
		return library.Metadata{}, err
	}
	if ed == nil {
		return library.Metadata{}, fmt.Errorf("empty edition for isbn %s", isbn)
	}

	meta := library.Metadata{Title: ed.Title}
	for _, a := range ed.Authors {
		meta.Authors = append(meta.Authors, library.AuthorRef{Name: a.Name, Ref: a.Key})
	}
	return meta, nil
}

func (s *Source) FetchAuthorName(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty author reference")
	}
	a, err := s.api.GetAuthor(ctx, ref)
	if err != nil {
		return "", err
	}
	if a == nil || a.DisplayName() == "" {
		return "", fmt.Errorf("author %s has no name", ref)
	}
	return a.DisplayName(), nil
}
