package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir", "library.json"))
	require.NoError(t, err)

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.False(t, s.Exists())

	info, err := os.Stat(filepath.Dir(s.Location()))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "library.json"))
	require.NoError(t, err)

	books := []Book{
		{Title: "Dune", Authors: []string{"Frank Herbert"}, ISBN: "9780441013593", Available: false},
		{Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}, ISBN: "9780060853983", Available: true},
	}
	require.NoError(t, s.Save(ctx, books))
	assert.True(t, s.Exists())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, got)

	entries, err := os.ReadDir(filepath.Dir(s.Location()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_SaveEmptyWritesArray(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "library.json"))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, nil))

	data, err := os.ReadFile(s.Location())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"wrong shape", `{"title":"x"}`},
		{"missing isbn", `[{"title":"Dune","authors":["Frank Herbert"]}]`},
		{"missing authors", `[{"title":"Dune","isbn":"1"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "library.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := NewFileStore(path)
			require.NoError(t, err)

			_, err = s.Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileStore_SaveFailsWhenDirectoryGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	s, err := NewFileStore(filepath.Join(dir, "library.json"))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = s.Save(context.Background(), []Book{{Title: "T", Authors: []string{"A"}, ISBN: "1", Available: true}})
	assert.Error(t, err)
}
