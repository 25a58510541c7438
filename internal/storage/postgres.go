// Package storage maps PostgreSQL driver failures onto the domain error
// taxonomy and builds connection strings for the services.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"

	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/telemetry"
)

const pingTimeout = 5 * time.Second

// SQLSTATE names that mean the schema has not been migrated yet.
const (
	undefinedTable  = "undefined_table"
	invalidSchema   = "invalid_schema_name"
	undefinedColumn = "undefined_column"
)

// Wrap classifies err as a *domain.PersistenceError for operation op.
// Missing tables, schemas and columns additionally match domain.ErrSchemaMissing.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var persistenceErr *domain.PersistenceError
	if errors.As(err, &persistenceErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case undefinedTable, invalidSchema, undefinedColumn:
			return &domain.PersistenceError{
				Op:  op,
				Err: fmt.Errorf("%w: %s", domain.ErrSchemaMissing, pqErr.Message),
			}
		}
	}

	return &domain.PersistenceError{Op: op, Err: err}
}

// DSNWithSearchPath sets the search_path run-time parameter on a postgres
// URL so every pooled connection resolves unqualified tables in schema.
func DSNWithSearchPath(dsn, schema string) (string, error) {
	if schema == "" {
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}

	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open returns an instrumented pool whose connections resolve tables in
// schema. The database must answer a ping before Open returns.
func Open(ctx context.Context, dsn, schema string) (*sql.DB, error) {
	dsn, err := DSNWithSearchPath(dsn, schema)
	if err != nil {
		return nil, err
	}

	db, err := telemetry.OpenDB("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}
