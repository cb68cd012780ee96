package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// FacetRepository serves facet vocabularies from the catalog_facets table.
type FacetRepository struct {
	db *sql.DB
}

func NewFacetRepository(db *sql.DB) *FacetRepository {
	return &FacetRepository{db: db}
}

func (r *FacetRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, `
CREATE TABLE IF NOT EXISTS catalog_facets (
	collection TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (collection, field, value)
);

CREATE INDEX IF NOT EXISTS idx_catalog_facets_collection ON catalog_facets(collection);
`)
}

func (r *FacetRepository) FetchFacets(ctx context.Context, collection string) (domain.Vocabulary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT field, value
FROM catalog_facets
WHERE collection = $1
ORDER BY field, position, value
`, collection)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "fetch facets", err)
	}
	defer rows.Close()

	out := domain.Vocabulary{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan facet: %w", err)
		}
		out[field] = append(out[field], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facets: %w", err)
	}
	for field, values := range out {
		out[field] = domain.Dedup(values)
	}
	return out, nil
}

// ReplaceFacets swaps the stored vocabulary of a collection in one
// transaction.
func (r *FacetRepository) ReplaceFacets(ctx context.Context, collection string, vocab domain.Vocabulary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin facets tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_facets WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("delete facets: %w", err)
	}
	for _, field := range vocab.Fields() {
		for pos, value := range domain.Dedup(vocab.Get(field)) {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO catalog_facets (collection, field, value, position)
VALUES ($1,$2,$3,$4)
`, collection, field, value, pos); err != nil {
				return fmt.Errorf("insert facet %s=%s: %w", field, value, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit facets tx: %w", err)
	}
	return nil
}
