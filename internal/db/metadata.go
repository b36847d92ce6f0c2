//-------------------------------------------------------------------------
//
// ecomflow - e-commerce warehouse ETL pipeline
//
// Portions copyright (c) 2025 - 2026, Datamill Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datamill-io/ecomflow/internal/logging"
	"github.com/datamill-io/ecomflow/pkg/version"
)

const metadataTable = "ecomflow_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS ecomflow_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveInitMetadata records schema initialization details.
func SaveInitMetadata(ctx context.Context, pool *pgxpool.Pool, schemaVersion string) error {
	if _, err := pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"schema_version": schemaVersion,
		"version":        version.Short(),
		"initialized_at": time.Now().UTC().Format(time.RFC3339),
	}

	for key, value := range metadata {
		if err := setMetadata(ctx, pool, key, value); err != nil {
			return err
		}
	}

	logging.Debug().
		Str("schema_version", schemaVersion).
		Msg("Saved init metadata")

	return nil
}

// SaveRunMetadata records the outcome of a pipeline run, including the
// serialized data-quality report.
func SaveRunMetadata(ctx context.Context, pool *pgxpool.Pool, completedAt time.Time, reportJSON []byte) error {
	if _, err := pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	if err := setMetadata(ctx, pool, "last_run_at",
		completedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return setMetadata(ctx, pool, "last_run_report", string(reportJSON))
}

func setMetadata(ctx context.Context, pool *pgxpool.Pool, key, value string) error {
	_, err := pool.Exec(ctx, `
        INSERT INTO ecomflow_metadata (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
    `, key, value)
	if err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM ecomflow_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = $1
        )
    `, metadataTable).Scan(&exists)
	return exists, err
}
