package library

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the catalog snapshot in the library_books table. Each
// Save replaces the table contents inside one transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Location() string {
	return "postgres:library_books"
}

func (s *PostgresStore) Load(ctx context.Context) ([]Book, error) {
	const query = `
		SELECT isbn, title, authors, available
		FROM library_books
		ORDER BY position ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	books := make([]Book, 0)
	for rows.Next() {
		var r snapshotRecord
		var available bool
		if err := rows.Scan(&r.ISBN, &r.Title, &r.Authors, &available); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Available = &available
		b, err := fromSnapshot(r)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, books []Book) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM library_books"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	rows := make([][]any, 0, len(books))
	for i, b := range books {
		rows = append(rows, []any{i, b.ISBN, b.Title, b.Authors, b.Available})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"library_books"},
		[]string{"position", "isbn", "title", "authors", "available"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}

	return tx.Commit(ctx)
}
