package usecase

import (
	"testing"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

func TestCompileFacetsAndPrice(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{
		"brand": "Bosch",
		"price": "[0 TO 500]",
	})
	if got := expr.String(); got != "brand:Bosch AND price:[0 TO 500]" {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileQuotesMultiWordValues(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{"category": "power tools"})
	if got := expr.String(); got != `category:"power tools"` {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileAccountSuppressesItemFilters(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{
		"account_id": "ACC1027",
		"sku":        "X-1",
		"brand":      "Bosch",
	})
	if got := expr.String(); got != "account_id:ACC1027 AND brand:Bosch" {
		t.Fatalf("unexpected expression %q", got)
	}
	if _, ok := expr.Term("sku"); ok {
		t.Fatalf("item filter must not coexist with account filter")
	}
}

func TestCompileKeepsItemFiltersWithoutAccount(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{"sku": "X-1"})
	if got := expr.String(); got != "sku:X-1" {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileUnknownKeysBecomeResidualText(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{
		"brand": "Bosch",
		"notes": "gift wrap",
	})
	if got := expr.String(); got != `brand:Bosch AND search_text:"gift wrap"` {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileSkipsPartialMarkerAndInvalidAccount(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{
		"account_partial": "true",
		"account_id":      "bob",
	})
	if !expr.Empty() {
		t.Fatalf("expected empty expression, got %q", expr.String())
	}
}

func TestCompileSplitsConnectivesAndRedirects(t *testing.T) {
	c := NewCompiler()
	expr := c.Compile(domain.EntitySet{"category": "power tools and material steel"})
	if got := expr.String(); got != `material:steel AND category:"power tools"` {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileWithKeepsVocabularyValuesWhole(t *testing.T) {
	c := NewCompiler()
	vocab := domain.Vocabulary{"category": {"Tools and Accessories"}}
	expr := c.CompileWith(domain.EntitySet{"category": "Tools and Accessories"}, vocab)
	if got := expr.String(); got != `category:"Tools and Accessories"` {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileExtraFacetFields(t *testing.T) {
	c := NewCompiler("status", "Status", "")
	if len(c.FacetFields()) != 5 {
		t.Fatalf("expected deduplicated facets, got %v", c.FacetFields())
	}
	expr := c.Compile(domain.EntitySet{"status": "Shipped", "account_id": "acc1027"})
	if got := expr.String(); got != "account_id:ACC1027 AND status:Shipped" {
		t.Fatalf("unexpected expression %q", got)
	}
}

func TestCompileFiltersNormalizesToVocabulary(t *testing.T) {
	c := NewCompiler()
	vocab := domain.Vocabulary{
		"brand":    {"Bosch", "Makita", "3M Company"},
		"category": {"Power Tools", "Hand Tools"},
		"material": {"Steel"},
	}
	expr := c.CompileFilters(map[string][]string{
		"brand":     {"BOSCH", "3m"},
		"category":  {"POWER TOOLS AND MATERIAL STEEL"},
		"color":     {"dark blue"},
		"warehouse": {"north"},
	}, vocab)

	want := `brand:(Bosch OR "3M Company") AND material:Steel AND color:"Dark Blue" AND category:"Power Tools" AND search_text:north`
	if got := expr.String(); got != want {
		t.Fatalf("unexpected expression\n got: %s\nwant: %s", got, want)
	}
}

func TestFilterTermRendering(t *testing.T) {
	cases := []struct {
		term domain.FilterTerm
		want string
	}{
		{domain.FilterTerm{Field: "brand", Op: domain.OpEq, Values: []string{"Bosch"}}, "brand:Bosch"},
		{domain.FilterTerm{Field: "brand", Op: domain.OpEq, Values: []string{`De "Walt"`}}, `brand:"De Walt"`},
		{domain.FilterTerm{Field: "price", Op: domain.OpRange, Low: 10, High: 20}, "price:[10 TO 20]"},
		{domain.FilterTerm{Field: "color", Op: domain.OpIn, Values: []string{"Red", "Navy Blue"}}, `color:(Red OR "Navy Blue")`},
	}
	for _, tc := range cases {
		if got := tc.term.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}
