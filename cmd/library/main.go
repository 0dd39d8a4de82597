package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"librarian/internal/app"
	"librarian/internal/config"
	"librarian/internal/ingest"
	"librarian/internal/library"
	"librarian/internal/platform/logger"
	"librarian/internal/shell"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	var (
		deps *app.Deps
		zl   = zap.NewNop()
	)

	isbnArg := func(c *cli.Context) (string, error) {
		if c.NArg() != 1 {
			return "", cli.Exit("exactly one ISBN argument is required", 2)
		}
		return c.Args().First(), nil
	}
	mutation := func(verb string, op func(context.Context, *library.Catalog, string) (library.Book, error)) cli.ActionFunc {
		return func(c *cli.Context) error {
			isbn, err := isbnArg(c)
			if err != nil {
				return err
			}
			b, err := op(c.Context, deps.Catalog, isbn)
			fmt.Fprintln(out, shell.Result(verb, b, err))
			if err != nil {
				return cli.Exit("", 1)
			}
			return nil
		}
	}

	return &cli.App{
		Name:      "library",
		Usage:     "manage the book catalog and lending status",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "snapshot file (overrides LIBRARY_FILE)", EnvVars: []string{"LIBRARY_FILE"}},
			&cli.StringFlag{Name: "store", Usage: "snapshot backend: file or postgres", EnvVars: []string{"LIBRARY_STORE"}},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if v := c.String("file"); v != "" {
				cfg.LibraryFile = v
			}
			if v := c.String("store"); v != "" {
				cfg.Store = v
			}
			if zl, err = logger.New(c.String("log-level"), "console"); err != nil {
				return err
			}
			deps, err = app.Open(c.Context, cfg, zl)
			return err
		},
		After: func(c *cli.Context) error {
			if deps != nil {
				deps.Close()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return shell.New(deps.Catalog, in, out).Run(c.Context)
		},
		Commands: []*cli.Command{
			{
				Name:  "shell",
				Usage: "interactive numbered menu",
				Action: func(c *cli.Context) error {
					return shell.New(deps.Catalog, in, out).Run(c.Context)
				},
			},
			{
				Name:  "add",
				Usage: "add a book manually",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringSliceFlag{Name: "author", Required: true, Usage: "repeat for several authors"},
					&cli.StringFlag{Name: "isbn", Required: true},
				},
				Action: func(c *cli.Context) error {
					b, err := deps.Catalog.Add(c.Context, c.String("title"), c.StringSlice("author"), c.String("isbn"))
					fmt.Fprintln(out, shell.Result("Added", b, err))
					if err != nil {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:      "add-isbn",
				Usage:     "add a book using OpenLibrary metadata",
				ArgsUsage: "ISBN",
				Action: mutation("Added", func(ctx context.Context, cat *library.Catalog, isbn string) (library.Book, error) {
					return cat.AddByISBN(ctx, isbn)
				}),
			},
			{
				Name:      "borrow",
				ArgsUsage: "ISBN",
				Action: mutation("Borrowed", func(ctx context.Context, cat *library.Catalog, isbn string) (library.Book, error) {
					return cat.Borrow(ctx, isbn)
				}),
			},
			{
				Name:      "return",
				ArgsUsage: "ISBN",
				Action: mutation("Returned", func(ctx context.Context, cat *library.Catalog, isbn string) (library.Book, error) {
					return cat.Return(ctx, isbn)
				}),
			},
			{
				Name:      "remove",
				ArgsUsage: "ISBN",
				Action: mutation("Removed", func(ctx context.Context, cat *library.Catalog, isbn string) (library.Book, error) {
					return cat.Remove(ctx, isbn)
				}),
			},
			{
				Name:      "find",
				ArgsUsage: "ISBN",
				Action: func(c *cli.Context) error {
					isbn, err := isbnArg(c)
					if err != nil {
						return err
					}
					b, ok := deps.Catalog.Find(isbn)
					if !ok {
						fmt.Fprintln(out, "Book not found")
						return cli.Exit("", 1)
					}
					fmt.Fprintln(out, b.String())
					return nil
				},
			},
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					for _, line := range shell.RenderList(deps.Catalog.List()) {
						fmt.Fprintln(out, line)
					}
					return nil
				},
			},
			{
				Name:      "search",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one QUERY argument is required", 2)
					}
					for _, b := range deps.Catalog.Search(c.Args().First(), c.Int("limit")) {
						fmt.Fprintln(out, b.String())
					}
					return nil
				},
			},
			{
				Name:      "import",
				Usage:     "add every ISBN listed in FILE (one per line, - for stdin) using OpenLibrary metadata",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Value: 1, Usage: "concurrent lookups; above 1 the catalog order follows completion"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one FILE argument is required", 2)
					}
					src := in
					if name := c.Args().First(); name != "-" {
						f, err := os.Open(name)
						if err != nil {
							return cli.Exit(err.Error(), 1)
						}
						defer f.Close()
						src = f
					}
					isbns, err := ingest.ReadISBNs(src)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}

					run, err := ingest.NewService(deps.Catalog, ingest.Config{Workers: c.Int("workers")}, zl.Named("ingest")).Run(c.Context, isbns)
					for _, f := range run.Failed {
						fmt.Fprintf(out, "Error: %s: %s\n", f.ISBN, f.Reason)
					}
					fmt.Fprintf(out, "Imported %d of %d (%d already present, %d failed)\n",
						run.Added, run.Requested, run.Duplicates, len(run.Failed))
					if err != nil {
						fmt.Fprintln(out, "Error: "+err.Error())
						return cli.Exit("", 1)
					}
					if len(run.Failed) > 0 {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name: "stats",
				Action: func(c *cli.Context) error {
					s := deps.Catalog.Stats()
					fmt.Fprintf(out, "Total: %d, Available: %d, Borrowed: %d\n", s.Total, s.Available, s.Borrowed)
					return nil
				},
			},
		},
	}
}
