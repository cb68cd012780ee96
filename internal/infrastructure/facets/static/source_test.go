package static

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const facetYAML = `
products:
  brand: [Bosch, Makita, Bosch, ""]
  color: [Red]
orderHistory:
  status: [Shipped, Pending]
`

func TestParseDeduplicates(t *testing.T) {
	got, err := Parse([]byte(facetYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b := got["products"].Get("brand"); len(b) != 2 {
		t.Fatalf("unexpected brands %v", b)
	}
}

func TestLoadFetchesCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facets.yaml")
	if err := os.WriteFile(path, []byte(facetYAML), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if names := src.Collections(); len(names) != 2 || names[0] != "orderHistory" {
		t.Fatalf("unexpected collections %v", names)
	}
	v, err := src.FetchFacets(context.Background(), "orderHistory")
	if err != nil || len(v.Get("status")) != 2 {
		t.Fatalf("FetchFacets() = %v, %v", v, err)
	}
	missing, err := src.FetchFacets(context.Background(), "nope")
	if err != nil || missing.Size() != 0 {
		t.Fatalf("expected empty vocabulary for unknown collection, got %v, %v", missing, err)
	}
}

func TestFileSourceRereadsOnFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facets.yaml")
	if err := os.WriteFile(path, []byte("products:\n  brand: [Bosch]\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	src := NewFile(path)
	if v, _ := src.FetchFacets(context.Background(), "products"); len(v.Get("brand")) != 1 {
		t.Fatalf("unexpected vocabulary %v", v)
	}
	if err := os.WriteFile(path, []byte("products:\n  brand: [Bosch, Makita]\n"), 0o600); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}
	if v, _ := src.FetchFacets(context.Background(), "products"); len(v.Get("brand")) != 2 {
		t.Fatalf("expected reread vocabulary, got %v", v)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("products: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
