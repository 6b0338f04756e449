package underwriting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL. Headline fields
// live in columns for querying; the full decision document is stored
// as JSONB and read back whole.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed decision store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a decision.
func (p *PostgresStore) Create(ctx context.Context, decision *Decision) error {
	doc, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO underwriting_decisions (
			id, user_id, jurisdiction, fraud_gate_passed, approved,
			pd_12m, credit_limit, decision, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		decision.ID, decision.UserID, string(decision.Jurisdiction),
		decision.FraudGatePassed, decision.Approved,
		decision.PD12M, decision.CreditLimit, doc, decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Get retrieves a decision by ID.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Decision, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT decision FROM underwriting_decisions WHERE id = $1
	`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrDecisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}

	var decision Decision
	if err := json.Unmarshal(doc, &decision); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	return &decision, nil
}

// ListByUser returns a user's decisions, newest first.
func (p *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Decision, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT decision FROM underwriting_decisions
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Decision
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var decision Decision
		if err := json.Unmarshal(doc, &decision); err != nil {
			return nil, fmt.Errorf("unmarshal decision: %w", err)
		}
		result = append(result, &decision)
	}
	return result, rows.Err()
}
