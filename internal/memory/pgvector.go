package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// PgvectorIndex stores memory records in PostgreSQL with pgvector
// nearest-neighbor search.
type PgvectorIndex struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPgvectorIndex(ctx context.Context, databaseURL string, dim int) (*PgvectorIndex, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initVectorSchema(ctx, pool, dim); err != nil {
		pool.Close()
		return nil, err
	}

	return &PgvectorIndex{pool: pool, dim: dim}, nil
}

func initVectorSchema(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS memory_records (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, dim),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (ix *PgvectorIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	query := pgvector.NewVector(vector)
	rows, err := ix.pool.Query(ctx,
		`SELECT id, content FROM memory_records ORDER BY embedding <=> $1 LIMIT $2`,
		query,
		k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, Match{
			Content:  content,
			Metadata: map[string]string{"id": id, "content": content},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}

func (ix *PgvectorIndex) Upsert(ctx context.Context, rec Record) error {
	_, err := ix.pool.Exec(ctx,
		`INSERT INTO memory_records (id, content, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET content=EXCLUDED.content, embedding=EXCLUDED.embedding`,
		rec.ID,
		rec.Content,
		pgvector.NewVector(rec.Vector),
	)
	if err != nil {
		return fmt.Errorf("upsert memory record: %w", err)
	}
	return nil
}

func (ix *PgvectorIndex) Close() error {
	ix.pool.Close()
	return nil
}
