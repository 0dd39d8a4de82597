package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"librarian/internal/app"
	"librarian/internal/config"
	"librarian/internal/ingest"
	"librarian/internal/library"
	"librarian/internal/platform/logger"

	"go.uber.org/zap"
)

type seedBook struct {
	Title   string
	Authors []string
	ISBN    string
}

var classics = []seedBook{
	{"Dune", []string{"Frank Herbert"}, "9780441013593"},
	{"The Left Hand of Darkness", []string{"Ursula K. Le Guin"}, "9780441478125"},
	{"Good Omens", []string{"Terry Pratchett", "Neil Gaiman"}, "9780060853983"},
	{"The Pragmatic Programmer", []string{"Andrew Hunt", "David Thomas"}, "9780201616224"},
	{"The Go Programming Language", []string{"Alan A. A. Donovan", "Brian W. Kernighan"}, "9780134190440"},
}

func main() {
	var (
		generate = flag.Int("generate", 0, "Number of synthetic books to add after the classics")
		byISBN   = flag.Bool("lookup", false, "Add the classics through the OpenLibrary lookup instead of the built-in metadata")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	deps, err := app.Open(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("cannot open catalog", zap.Error(err))
	}
	defer deps.Close()

	added, skipped := 0, 0
	record := func(b library.Book, err error) {
		switch {
		case err == nil:
			added++
		case errors.Is(err, library.ErrDuplicate):
			skipped++
		default:
			zl.Fatal("seed failed", zap.String("isbn", b.ISBN), zap.Error(err))
		}
	}

	pending := classics
	if *byISBN {
		isbns := make([]string, len(classics))
		for i, s := range classics {
			isbns[i] = s.ISBN
		}
		run, err := ingest.NewService(deps.Catalog, ingest.Config{Workers: 1}, zl.Named("ingest")).Run(ctx, isbns)
		if err != nil {
			zl.Fatal("seed failed", zap.Error(err))
		}
		added += run.Added
		skipped += run.Duplicates

		failed := make(map[string]bool, len(run.Failed))
		for _, f := range run.Failed {
			zl.Warn("lookup failed, using built-in metadata", zap.String("isbn", f.ISBN), zap.String("reason", f.Reason))
			failed[f.ISBN] = true
		}
		pending = nil
		for _, s := range classics {
			if failed[s.ISBN] {
				pending = append(pending, s)
			}
		}
	}
	for _, s := range pending {
		record(deps.Catalog.Add(ctx, s.Title, s.Authors, s.ISBN))
	}

	for i := 0; i < *generate; i++ {
		title := fmt.Sprintf("Book Title %d - %s", i+1, getRandomWord())
		author := fmt.Sprintf("%s %s", getRandomWord(), getRandomWord())
		isbn := fmt.Sprintf("978%010d", i+1)
		record(deps.Catalog.Add(ctx, title, []string{author}, isbn))
	}

	zl.Info("seed complete",
		zap.Int("added", added),
		zap.Int("skipped_duplicates", skipped),
		zap.Int("total", deps.Catalog.Len()),
		zap.String("storage", deps.Catalog.Location()))
}

func getRandomWord() string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rand.Intn(len(words))]
}
