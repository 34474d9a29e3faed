package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Index tables created by the migrations in db/migrations.
const (
	CatalogTable = "lectern_catalog"
	ContentTable = "lectern_content"
)

// PostgresIndex implements Index on PostgreSQL with the pgvector extension.
// Replace runs as a single transaction, so readers see the old course until
// the swap commits.
type PostgresIndex struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresIndex binds an index to one of the migrated tables. The table
// name is interpolated into SQL, so only the known tables are accepted.
func NewPostgresIndex(pool *pgxpool.Pool, table string) (*PostgresIndex, error) {
	switch table {
	case CatalogTable, ContentTable:
	default:
		return nil, fmt.Errorf("unknown index table %q", table)
	}
	return &PostgresIndex{pool: pool, table: table}, nil
}

func (x *PostgresIndex) Upsert(ctx context.Context, docs []Document) error {
	return pgx.BeginFunc(ctx, x.pool, func(tx pgx.Tx) error {
		return x.insert(ctx, tx, docs)
	})
}

func (x *PostgresIndex) Replace(ctx context.Context, filter map[string]string, docs []Document) error {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("encoding filter: %w", err)
	}

	return pgx.BeginFunc(ctx, x.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`DELETE FROM %s WHERE metadata @> $1`, x.table)
		if _, err := tx.Exec(ctx, query, filterJSON); err != nil {
			return fmt.Errorf("deleting by filter: %w", err)
		}
		return x.insert(ctx, tx, docs)
	})
}

func (x *PostgresIndex) Query(ctx context.Context, vector []float32, filter map[string]string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	var filterJSON []byte
	if len(filter) > 0 {
		var err error
		if filterJSON, err = json.Marshal(filter); err != nil {
			return nil, fmt.Errorf("encoding filter: %w", err)
		}
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE $2::jsonb IS NULL OR metadata @> $2
		ORDER BY embedding <=> $1
		LIMIT $3`, x.table)

	rows, err := x.pool.Query(ctx, query, pgvector.NewVector(vector), filterJSON, k)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", x.table, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			meta map[string]string
		)
		if err := rows.Scan(&h.ID, &h.Content, &meta, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Metadata = meta
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}
	return hits, nil
}

func (x *PostgresIndex) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, x.table)
	if err := x.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", x.table, err)
	}
	return count, nil
}

func (x *PostgresIndex) IDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, x.table)
	rows, err := x.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", x.table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ids: %w", err)
	}
	return ids, nil
}

func (x *PostgresIndex) insert(ctx context.Context, tx pgx.Tx, docs []Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    metadata = EXCLUDED.metadata`, x.table)

	for _, d := range docs {
		metaJSON, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %q: %w", d.ID, err)
		}
		if _, err := tx.Exec(ctx, query, d.ID, d.Content, pgvector.NewVector(d.Embedding), metaJSON); err != nil {
			return fmt.Errorf("inserting document %q: %w", d.ID, err)
		}
	}
	return nil
}
