package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"librarian/db"
	"librarian/internal/config"
	"librarian/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, reset, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()

	zl, err := logger.New(getEnv("LOG_LEVEL", "info"), "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	if *command == "create" {
		if *name == "" {
			zl.Fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, migrationsDir(), *name, "sql"); err != nil {
			zl.Fatal("create migration", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dsn := databaseDSN()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		zl.Fatal("connect to database", zap.String("dsn", config.RedactDSN(dsn)), zap.Error(err))
	}
	defer pool.Close()

	provider, err := db.NewProvider(pool, os.DirFS(migrationsDir()))
	if err != nil {
		zl.Fatal("load migrations", zap.Error(err))
	}
	defer provider.Close()

	if err := run(ctx, provider, *command, zl); err != nil {
		zl.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
}

func run(ctx context.Context, p *goose.Provider, command string, zl *zap.Logger) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		logResults(zl, results)
		return err
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			logResults(zl, []*goose.MigrationResult{result})
		}
		return err
	case "reset":
		results, err := p.DownTo(ctx, 0)
		logResults(zl, results)
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			zl.Info("migration", zap.String("file", s.Source.Path), zap.String("state", string(s.State)))
		}
		return nil
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		zl.Info("database version", zap.Int64("version", v))
		return nil
	default:
		return fmt.Errorf("unknown command %q, use: up, down, reset, status, version, create", command)
	}
}

func logResults(zl *zap.Logger, results []*goose.MigrationResult) {
	if len(results) == 0 {
		zl.Info("no migrations to apply")
		return
	}
	for _, r := range results {
		zl.Info("migration applied",
			zap.String("file", r.Source.Path),
			zap.String("direction", r.Direction),
			zap.Duration("took", r.Duration))
	}
}
