// Package static serves facet vocabularies from a YAML file:
//
//	products:
//	  brand: [Bosch, Makita]
//	orderHistory:
//	  status: [Shipped, Pending]
package static

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

type Source struct {
	path        string
	collections map[string]domain.Vocabulary
}

// Load reads the file once.
func Load(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facet file: %w", err)
	}
	collections, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Source{collections: collections}, nil
}

// NewFile re-reads path on every fetch.
func NewFile(path string) *Source {
	return &Source{path: path}
}

func New(collections map[string]domain.Vocabulary) *Source {
	return &Source{collections: collections}
}

func Parse(raw []byte) (map[string]domain.Vocabulary, error) {
	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse facet file: %w", err)
	}
	out := make(map[string]domain.Vocabulary, len(doc))
	for collection, fields := range doc {
		vocab := domain.Vocabulary{}
		for field, values := range fields {
			if values = domain.Dedup(values); len(values) > 0 {
				vocab[field] = values
			}
		}
		out[collection] = vocab
	}
	return out, nil
}

func (s *Source) FetchFacets(_ context.Context, collection string) (domain.Vocabulary, error) {
	collections := s.collections
	if s.path != "" {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read facet file: %w", err)
		}
		if collections, err = Parse(raw); err != nil {
			return nil, err
		}
	}
	vocab, ok := collections[collection]
	if !ok {
		return domain.Vocabulary{}, nil
	}
	return vocab.Clone(), nil
}

// Collections lists the collection names of a loaded file in sorted order.
func (s *Source) Collections() []string {
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
