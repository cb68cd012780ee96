package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

const maxTermExamples = 3

type UnknownTermRepository struct {
	db *sql.DB
}

func NewUnknownTermRepository(db *sql.DB) *UnknownTermRepository {
	return &UnknownTermRepository{db: db}
}

func (r *UnknownTermRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, `
CREATE TABLE IF NOT EXISTS unknown_terms (
	id TEXT PRIMARY KEY,
	term TEXT NOT NULL,
	original TEXT NOT NULL,
	source TEXT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_unknown_terms_term ON unknown_terms(term);
CREATE INDEX IF NOT EXISTS idx_unknown_terms_observed_at ON unknown_terms(observed_at DESC);
`)
}

// AppendUnknownTerms is idempotent on event id so redelivered batches are
// not double counted.
func (r *UnknownTermRepository) AppendUnknownTerms(ctx context.Context, terms []domain.UnknownTerm) error {
	if len(terms) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unknown terms tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range terms {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO unknown_terms (id, term, original, source, observed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Term, t.Original, t.Source, t.ObservedAt.UTC()); err != nil {
			return fmt.Errorf("insert unknown term: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unknown terms tx: %w", err)
	}
	return nil
}

func (r *UnknownTermRepository) TopUnknownTerms(ctx context.Context, limit int) ([]domain.UnknownTermStat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT term,
	COUNT(*) AS occurrences,
	array_to_json((array_agg(DISTINCT original))[1:$2]) AS examples,
	MIN(observed_at),
	MAX(observed_at)
FROM unknown_terms
GROUP BY term
ORDER BY occurrences DESC, term
LIMIT $1
`, limit, maxTermExamples)
	if err != nil {
		return nil, fmt.Errorf("query unknown terms: %w", err)
	}
	defer rows.Close()

	var out []domain.UnknownTermStat
	for rows.Next() {
		var stat domain.UnknownTermStat
		var examples []byte
		if err := rows.Scan(&stat.Term, &stat.Count, &examples, &stat.FirstSeen, &stat.LastSeen); err != nil {
			return nil, fmt.Errorf("scan unknown term: %w", err)
		}
		if len(examples) > 0 {
			if err := json.Unmarshal(examples, &stat.Examples); err != nil {
				return nil, fmt.Errorf("unmarshal examples: %w", err)
			}
		}
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unknown terms: %w", err)
	}
	return out, nil
}
