// internal/repository/postgres/entity_backend.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"loyalty-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// EntityBackend keeps every kind in one JSONB table keyed by (kind, id). The
// bigserial seq column is the insertion-order index.
type EntityBackend struct {
	db    *DB
	table string
}

func NewEntityBackend(db *DB, table string) *EntityBackend {
	if table == "" {
		table = "entities"
	}
	return &EntityBackend{db: db, table: pq.QuoteIdentifier(table)}
}

// Migrate creates the table when missing.
func (r *EntityBackend) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq   BIGSERIAL,
			kind  TEXT  NOT NULL,
			id    TEXT  NOT NULL,
			data  JSONB NOT NULL,
			PRIMARY KEY (kind, id)
		)`, r.table)
	if _, err := r.db.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create entity table: %w", err)
	}
	return nil
}

func (r *EntityBackend) Exists(ctx context.Context, k store.Kind, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE kind = $1 AND id = $2)`, r.table)
	var ok bool
	if err := r.db.Pool().QueryRow(ctx, query, k.Entity, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check entity: %w", err)
	}
	return ok, nil
}

func (r *EntityBackend) Get(ctx context.Context, k store.Kind, id string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE kind = $1 AND id = $2`, r.table)
	var data []byte
	err := r.db.Pool().QueryRow(ctx, query, k.Entity, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return data, nil
}

func (r *EntityBackend) Insert(ctx context.Context, k store.Kind, id string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (kind, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (kind, id) DO NOTHING`, r.table)
	tag, err := r.db.Pool().Exec(ctx, query, k.Entity, id, data)
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

// Update holds the row lock for the whole read-transform-write.
func (r *EntityBackend) Update(ctx context.Context, k store.Kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	var out []byte
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var cur []byte
		sel := fmt.Sprintf(`SELECT data FROM %s WHERE kind = $1 AND id = $2 FOR UPDATE`, r.table)
		err := tx.QueryRow(ctx, sel, k.Entity, id).Scan(&cur)
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock entity: %w", err)
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		upd := fmt.Sprintf(`UPDATE %s SET data = $3 WHERE kind = $1 AND id = $2`, r.table)
		if _, err := tx.Exec(ctx, upd, k.Entity, id, next); err != nil {
			return fmt.Errorf("failed to update entity: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

func (r *EntityBackend) Delete(ctx context.Context, k store.Kind, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE kind = $1 AND id = $2`, r.table)
	tag, err := r.db.Pool().Exec(ctx, query, k.Entity, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *EntityBackend) List(ctx context.Context, k store.Kind) ([][]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE kind = $1 ORDER BY seq`, r.table)
	rows, err := r.db.Pool().Query(ctx, query, k.Entity)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	out := [][]byte{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

func (r *EntityBackend) Count(ctx context.Context, k store.Kind) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE kind = $1`, r.table)
	var n int
	if err := r.db.Pool().QueryRow(ctx, query, k.Entity).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return n, nil
}

// SeedIfEmpty takes a transaction-scoped advisory lock on the kind so
// concurrent seeders across processes see one winner.
func (r *EntityBackend) SeedIfEmpty(ctx context.Context, k store.Kind, records []store.Record) (bool, error) {
	var seeded bool
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, k.Index); err != nil {
			return fmt.Errorf("failed to acquire seed lock: %w", err)
		}
		var n int
		count := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE kind = $1`, r.table)
		if err := tx.QueryRow(ctx, count, k.Entity).Scan(&n); err != nil {
			return fmt.Errorf("failed to count entities: %w", err)
		}
		if n > 0 {
			return nil
		}

		batch := &pgx.Batch{}
		ins := fmt.Sprintf(`
			INSERT INTO %s (kind, id, data) VALUES ($1, $2, $3)
			ON CONFLICT (kind, id) DO NOTHING`, r.table)
		for _, rec := range records {
			batch.Queue(ins, k.Entity, rec.ID, rec.Data)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert fixtures: %w", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}

// Close releases the pool.
func (r *EntityBackend) Close() error {
	r.db.Pool().Close()
	return nil
}
