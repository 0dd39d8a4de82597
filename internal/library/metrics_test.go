package library_test

import (
	"context"
	"strings"
	"testing"

	"librarian/internal/library"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	cat, _ := newFileCatalog(t, nil)
	ctx := context.Background()
	_, _ = cat.Add(ctx, "Dune", []string{"Frank Herbert"}, "1")
	_, _ = cat.Add(ctx, "Neuromancer", []string{"William Gibson"}, "2")
	_, _ = cat.Add(ctx, "Hyperion", []string{"Dan Simmons"}, "3")
	_, err := cat.Borrow(ctx, "3")
	require.NoError(t, err)

	expected := `
# HELP library_books Number of catalogued books by lending status.
# TYPE library_books gauge
library_books{status="available"} 2
library_books{status="borrowed"} 1
`
	require.NoError(t, testutil.CollectAndCompare(library.NewCollector(cat), strings.NewReader(expected), "library_books"))
}
