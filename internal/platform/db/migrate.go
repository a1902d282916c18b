package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations exposes the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies every pending migration to the database at dsn.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	provider, closeDB, err := newProvider(dsn)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: migrate up: %w", err)
	}
	for _, res := range results {
		logger.Info("migration applied", slog.Int64("version", res.Source.Version), slog.Duration("duration", res.Duration))
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, dsn string, logger *slog.Logger) error {
	provider, closeDB, err := newProvider(dsn)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: migrate down: %w", err)
	}
	logger.Info("migration reverted", slog.Int64("version", res.Source.Version))
	return nil
}

func newProvider(dsn string) (*goose.Provider, func(), error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("platform/db: open: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("platform/db: goose provider: %w", err)
	}
	return provider, func() { _ = sqlDB.Close() }, nil
}
