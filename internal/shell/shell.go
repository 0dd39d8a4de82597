// Package shell is the numbered-menu text front end for a library.Catalog.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"librarian/internal/library"
)

// EmptyCatalogMessage is printed when listing an empty catalog.
const EmptyCatalogMessage = "No books in library"

var errQuit = errors.New("quit")

const menu = `
==== LIBRARY MANAGEMENT SYSTEM ====
1. Add Book (Manual Entry)
2. Add Book by ISBN (OpenLibrary)
3. Remove Book
4. List All Books
5. Find Book by ISBN
6. Borrow Book
7. Return Book
8. Search Books
9. Statistics
0. Exit`

type Shell struct {
	catalog *library.Catalog
	in      *bufio.Scanner
	out     io.Writer
}

func New(catalog *library.Catalog, in io.Reader, out io.Writer) *Shell {
	return &Shell{catalog: catalog, in: bufio.NewScanner(in), out: out}
}

// Run shows the menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(s.out, menu)
		choice, err := s.prompt("\nYour choice (0-9): ", true)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.dispatch(ctx, choice); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(s.out, "\nThank you for using the Library System!")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		fmt.Fprintln(s.out, "=== ADD NEW BOOK ===")
		title, err := s.prompt("Title: ", true)
		if err != nil {
			return err
		}
		authors, err := s.promptAuthors()
		if err != nil {
			return err
		}
		isbn, err := s.prompt("ISBN: ", true)
		if err != nil {
			return err
		}
		b, err := s.catalog.Add(ctx, title, authors, isbn)
		s.println(Result("Added", b, err))

	case "2":
		fmt.Fprintln(s.out, "=== ADD BOOK BY ISBN ===")
		isbn, err := s.prompt("Enter ISBN: ", true)
		if err != nil {
			return err
		}
		b, err := s.catalog.AddByISBN(ctx, isbn)
		s.println(Result("Added", b, err))

	case "3":
		fmt.Fprintln(s.out, "=== REMOVE BOOK ===")
		isbn, err := s.prompt("Enter ISBN to remove: ", true)
		if err != nil {
			return err
		}
		b, err := s.catalog.Remove(ctx, isbn)
		s.println(Result("Removed", b, err))

	case "4":
		fmt.Fprintln(s.out, "=== ALL BOOKS ===")
		for _, line := range RenderList(s.catalog.List()) {
			fmt.Fprintln(s.out, line)
		}

	case "5":
		fmt.Fprintln(s.out, "=== FIND BOOK ===")
		isbn, err := s.prompt("Enter ISBN to find: ", true)
		if err != nil {
			return err
		}
		if b, ok := s.catalog.Find(isbn); ok {
			s.println(b.String())
		} else {
			s.println("Book not found")
		}

	case "6":
		fmt.Fprintln(s.out, "=== BORROW BOOK ===")
		isbn, err := s.prompt("Enter ISBN to borrow: ", true)
		if err != nil {
			return err
		}
		b, err := s.catalog.Borrow(ctx, isbn)
		s.println(Result("Borrowed", b, err))

	case "7":
		fmt.Fprintln(s.out, "=== RETURN BOOK ===")
		isbn, err := s.prompt("Enter ISBN to return: ", true)
		if err != nil {
			return err
		}
		b, err := s.catalog.Return(ctx, isbn)
		s.println(Result("Returned", b, err))

	case "8":
		fmt.Fprintln(s.out, "=== SEARCH BOOKS ===")
		q, err := s.prompt("Title or author contains: ", true)
		if err != nil {
			return err
		}
		matches := s.catalog.Search(q, 0)
		if len(matches) == 0 {
			s.println("No matching books")
			return nil
		}
		fmt.Fprintln(s.out)
		for _, b := range matches {
			fmt.Fprintln(s.out, b.String())
		}

	case "9":
		st := s.catalog.Stats()
		s.println(fmt.Sprintf("Total: %d, Available: %d, Borrowed: %d", st.Total, st.Available, st.Borrowed))

	case "0", "q", "quit", "exit":
		return errQuit

	default:
		s.println("Invalid choice! Please enter 0-9.")
	}
	return nil
}

// Result renders the outcome of a mutating catalog call as one line.
func Result(verb string, b library.Book, err error) string {
	if err != nil {
		if errors.Is(err, library.ErrPersistence) {
			return fmt.Sprintf("Error: %s %s in memory but the change was not saved: %v", strings.ToLower(verb), b.Title, err)
		}
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("%s: %s", verb, b.Title)
}

// RenderList renders books one per line, or the empty-catalog message.
func RenderList(books []library.Book) []string {
	if len(books) == 0 {
		return []string{EmptyCatalogMessage}
	}
	lines := make([]string, len(books))
	for i, b := range books {
		lines[i] = b.String()
	}
	return lines
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, "\n"+line)
}

// prompt reads one trimmed line; required prompts repeat until non-empty.
func (s *Shell) prompt(label string, required bool) (string, error) {
	for {
		fmt.Fprint(s.out, label)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		v := strings.TrimSpace(s.in.Text())
		if v != "" || !required {
			return v, nil
		}
		fmt.Fprintln(s.out, "Error: This field is required!")
	}
}

func (s *Shell) promptAuthors() ([]string, error) {
	for {
		raw, err := s.prompt("Enter authors (comma separated): ", false)
		if err != nil {
			return nil, err
		}
		var authors []string
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				authors = append(authors, a)
			}
		}
		if len(authors) > 0 {
			return authors, nil
		}
		fmt.Fprintln(s.out, "Error: At least one author is required!")
	}
}
