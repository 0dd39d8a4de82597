package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"librarian/internal/library"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Adder is the catalog operation an import drives. *library.Catalog
// satisfies it.
type Adder interface {
	AddByISBN(ctx context.Context, isbn string) (library.Book, error)
}

type Config struct {
	// Workers bounds concurrent lookups. With more than one worker the
	// catalog order follows lookup completion, not input order.
	Workers int
}

type Service struct {
	adder  Adder
	cfg    Config
	logger *zap.Logger
}

func NewService(adder Adder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{adder: adder, cfg: cfg, logger: logger}
}

// Run adds every ISBN through the metadata source. Duplicates and lookup
// failures are counted and the import continues; a snapshot write failure
// or cancellation stops it and marks the run FAILED.
func (s *Service) Run(ctx context.Context, isbns []string) (*Run, error) {
	run := &Run{
		Status:    StatusRunning,
		Requested: len(isbns),
		StartedAt: time.Now(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, isbn := range isbns {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			b, err := s.adder.AddByISBN(gctx, isbn)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				run.Added++
				s.logger.Debug("imported", zap.String("isbn", isbn), zap.String("title", b.Title))
			case errors.Is(err, library.ErrDuplicate):
				run.Duplicates++
			case errors.Is(err, library.ErrPersistence):
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				run.Failed = append(run.Failed, Failure{ISBN: isbn, Reason: err.Error()})
				s.logger.Warn("import failed", zap.String("isbn", isbn), zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	now := time.Now()
	run.FinishedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		s.logger.Error("import aborted", zap.Int("added", run.Added), zap.Error(err))
		return run, fmt.Errorf("import aborted after %d books: %w", run.Added, err)
	}
	run.Status = StatusCompleted
	s.logger.Info("import finished",
		zap.Int("requested", run.Requested),
		zap.Int("added", run.Added),
		zap.Int("duplicates", run.Duplicates),
		zap.Int("failed", len(run.Failed)),
		zap.Duration("took", now.Sub(run.StartedAt)))
	return run, nil
}

// ReadISBNs reads one ISBN per line. Blank lines and lines starting with #
// are skipped; repeats keep their first position.
func ReadISBNs(r io.Reader) ([]string, error) {
	var isbns []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		isbns = append(isbns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read isbn list: %w", err)
	}
	return isbns, nil
}
