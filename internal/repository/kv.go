// Package repository provides the PostgreSQL persistence of the storefront
// server: one key-value namespace per browser session.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresKVRepository owns the kv table.
type PostgresKVRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresKVRepository creates a repository over db.
// db must be a valid connection to a PostgreSQL instance with the kv table migrated.
func NewPostgresKVRepository(db *sql.DB) *PostgresKVRepository {
	return &PostgresKVRepository{DB: db}
}

// ForSession returns the store of one session. Every query it runs is bound
// to ctx, so the store must not outlive the request that created it.
func (r *PostgresKVRepository) ForSession(ctx context.Context, namespace string) *PostgresKVStore {
	return &PostgresKVStore{ctx: ctx, db: r.DB, namespace: namespace}
}

// PostgresKVStore is the key-value store of a single session.
type PostgresKVStore struct {
	ctx       context.Context
	db        *sql.DB
	namespace string
}

// Namespace returns the session the store is bound to.
func (s *PostgresKVStore) Namespace() string { return s.namespace }

// Get returns the value stored under key.
func (s *PostgresKVStore) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(s.ctx, `
		SELECT value FROM kv WHERE namespace = $1 AND key = $2
	`, s.namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key and marks the session as active.
func (s *PostgresKVStore) Set(key, value string) error {
	_, err := s.db.ExecContext(s.ctx, `
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *PostgresKVStore) Remove(key string) error {
	_, err := s.db.ExecContext(s.ctx, `
		DELETE FROM kv WHERE namespace = $1 AND key = $2
	`, s.namespace, key)
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
