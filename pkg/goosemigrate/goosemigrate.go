package goosemigrate

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Up applies all pending migrations from dir, creating the target
// schema when it does not exist yet.
func Up(ctx context.Context, postgresURL, dir, schema string) error {
	goose.SetTableName(schema + ".migrations")

	db, err := goose.OpenDBWithDriver("pgx", postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open db for migration: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}

	return nil
}

// Down rolls back all migrations and drops the schema.
func Down(ctx context.Context, postgresURL, dir, schema string) error {
	goose.SetTableName(schema + ".migrations")

	db, err := goose.OpenDBWithDriver("pgx", postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open db for migration: %w", err)
	}
	defer db.Close()

	if err := goose.DownToContext(ctx, db, dir, 0); err != nil {
		return fmt.Errorf("failed to down migrations: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	return nil
}
