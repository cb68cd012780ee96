package solr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
)

func newSolr(t *testing.T, selectStatus *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "solr" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/products/schema/fields":
			_, _ = w.Write([]byte(`{"fields":[{"name":"brand"},{"name":"color"},{"name":"_version_"},{"name":"price"}]}`))
		case "/products/select":
			if code := selectStatus.Load(); code != 0 {
				selectStatus.Store(0)
				w.WriteHeader(int(code))
				return
			}
			q := r.URL.Query()
			if q.Get("rows") != "0" || q.Get("facet") != "true" {
				t.Errorf("unexpected facet params %v", q)
			}
			if got := q["facet.field"]; strings.Join(got, ",") != "brand,color,price" {
				t.Errorf("unexpected facet fields %v", got)
			}
			_, _ = w.Write([]byte(`{"facet_counts":{"facet_fields":{
				"brand":["Bosch",12,"Makita",4],
				"color":["Red",3],
				"price":[199.5,1,20,2]
			}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchFacetsParsesValueCountPairs(t *testing.T) {
	var status atomic.Int32
	server := newSolr(t, &status)
	defer server.Close()

	src := New(Config{BaseURL: server.URL + "/", User: "solr", Password: "secret"}, nil)
	got, err := src.FetchFacets(context.Background(), "products")
	if err != nil {
		t.Fatalf("FetchFacets() error = %v", err)
	}
	if b := got.Get("brand"); len(b) != 2 || b[0] != "Bosch" || b[1] != "Makita" {
		t.Fatalf("unexpected brands %v", b)
	}
	if p := got.Get("price"); len(p) != 2 || p[0] != "199.5" {
		t.Fatalf("unexpected numeric facet values %v", p)
	}
	if _, ok := got["_version_"]; ok {
		t.Fatalf("internal fields must be skipped")
	}
}

func TestFetchFacetsRetriesTransientStatus(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	server := newSolr(t, &status)
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	src := New(Config{BaseURL: server.URL, User: "solr", Password: "secret"}, exec)
	got, err := src.FetchFacets(context.Background(), "products")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(got.Get("color")) != 1 {
		t.Fatalf("unexpected vocabulary %v", got)
	}
}

func TestFetchFacetsReportsAuthFailure(t *testing.T) {
	var status atomic.Int32
	server := newSolr(t, &status)
	defer server.Close()

	src := New(Config{BaseURL: server.URL, User: "solr", Password: "wrong"}, nil)
	_, err := src.FetchFacets(context.Background(), "products")
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
