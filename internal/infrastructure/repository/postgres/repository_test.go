package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *FacetRepository, *UnknownTermRepository, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return mock, NewFacetRepository(db), NewUnknownTermRepository(db), func() { _ = db.Close() }
}

func TestFetchFacetsGroupsByField(t *testing.T) {
	mock, facets, _, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT field, value\\s+FROM catalog_facets").
		WithArgs("products").
		WillReturnRows(sqlmock.NewRows([]string{"field", "value"}).
			AddRow("brand", "Bosch").
			AddRow("brand", "Makita").
			AddRow("brand", "Bosch").
			AddRow("color", "Red"))

	got, err := facets.FetchFacets(context.Background(), "products")
	if err != nil {
		t.Fatalf("FetchFacets() error = %v", err)
	}
	if b := got.Get("brand"); len(b) != 2 || b[0] != "Bosch" || b[1] != "Makita" {
		t.Fatalf("unexpected brands %v", b)
	}
	if c := got.Get("color"); len(c) != 1 {
		t.Fatalf("unexpected colors %v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFetchFacetsWrapsQueryErrorAsTemporary(t *testing.T) {
	mock, facets, _, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT field, value").WillReturnError(errors.New("connection refused"))

	_, err := facets.FetchFacets(context.Background(), "products")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestReplaceFacetsRewritesCollection(t *testing.T) {
	mock, facets, _, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM catalog_facets").WithArgs("orderHistory").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO catalog_facets").WithArgs("orderHistory", "status", "Shipped", 0).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO catalog_facets").WithArgs("orderHistory", "status", "Pending", 1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := facets.ReplaceFacets(context.Background(), "orderHistory", domain.Vocabulary{"status": {"Shipped", "Pending", " "}})
	if err != nil {
		t.Fatalf("ReplaceFacets() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendUnknownTermsInsertsBatch(t *testing.T) {
	mock, _, terms, done := newMock(t)
	defer done()

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO unknown_terms").
		WithArgs("e1", "bosh", "show bosh drills", "raw", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO unknown_terms").
		WithArgs("e2", "drils", "show bosh drills", "raw", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := terms.AppendUnknownTerms(context.Background(), []domain.UnknownTerm{
		{ID: "e1", Term: "bosh", Original: "show bosh drills", Source: "raw", ObservedAt: at},
		{ID: "e2", Term: "drils", Original: "show bosh drills", Source: "raw", ObservedAt: at},
	})
	if err != nil {
		t.Fatalf("AppendUnknownTerms() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendUnknownTermsRollsBackOnError(t *testing.T) {
	mock, _, terms, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO unknown_terms").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := terms.AppendUnknownTerms(context.Background(), []domain.UnknownTerm{{ID: "e1", Term: "bosh"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTopUnknownTermsDecodesExamples(t *testing.T) {
	mock, _, terms, done := newMock(t)
	defer done()

	first := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)
	mock.ExpectQuery("SELECT term").
		WithArgs(10, maxTermExamples).
		WillReturnRows(sqlmock.NewRows([]string{"term", "occurrences", "examples", "min", "max"}).
			AddRow("bosh", 4, []byte(`["show bosh","bosh drills"]`), first, last))

	got, err := terms.TopUnknownTerms(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopUnknownTerms() error = %v", err)
	}
	if len(got) != 1 || got[0].Term != "bosh" || got[0].Count != 4 || len(got[0].Examples) != 2 {
		t.Fatalf("unexpected stats %+v", got)
	}
	if !got[0].LastSeen.Equal(last) {
		t.Fatalf("unexpected last seen %v", got[0].LastSeen)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	mock, facets, _, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_facets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := facets.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
