package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL. The projected
// result and per-node contexts are stored as JSONB documents: analyses
// are written once and read whole, never queried field-by-field.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed analysis store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a completed analysis.
func (p *PostgresStore) Create(ctx context.Context, analysis *Analysis) error {
	result, err := json.Marshal(analysis.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	contexts, err := json.Marshal(analysis.Contexts)
	if err != nil {
		return fmt.Errorf("marshal contexts: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO graph_analyses (id, result, contexts, node_count, high_risk_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		analysis.ID, result, contexts,
		len(analysis.Result.Nodes), len(analysis.Result.HighRiskAccounts),
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Analysis, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, result, contexts, created_at
		FROM graph_analyses WHERE id = $1
	`, id)

	analysis, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return analysis, nil
}

// ListRecent returns the most recent analyses, newest first.
func (p *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Analysis, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, result, contexts, created_at
		FROM graph_analyses
		ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, analysis)
	}
	return result, rows.Err()
}

// scannable abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row scannable) (*Analysis, error) {
	var analysis Analysis
	var result, contexts []byte

	if err := row.Scan(&analysis.ID, &result, &contexts, &analysis.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(result, &analysis.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if err := json.Unmarshal(contexts, &analysis.Contexts); err != nil {
		return nil, fmt.Errorf("unmarshal contexts: %w", err)
	}
	return &analysis, nil
}
