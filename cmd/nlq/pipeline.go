package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/catalog-nlq/internal/core/nlu"
	"github.com/kirillkom/catalog-nlq/internal/core/usecase"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/facets/static"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/sessions/memory"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/unknownterms"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/vocabulary"
)

type pipeline struct {
	rules      nlu.RuleSet
	normalizer *nlu.Normalizer
	vocabulary *vocabulary.Merged
	terms      *unknownterms.Log
	understand *usecase.UnderstandUseCase
}

func loadRules() (nlu.RuleSet, error) {
	if rulesPath == "" {
		return nlu.DefaultRuleSet(), nil
	}
	rules, err := nlu.LoadRuleSet(rulesPath)
	if err != nil {
		return nlu.RuleSet{}, fmt.Errorf("load rules: %w", err)
	}
	return rules, nil
}

// newPipeline wires the full pipeline against the facet file with the
// keyword classifier and an in-process retry store.
func newPipeline() (*pipeline, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	source, err := static.Load(facetFile)
	if err != nil {
		return nil, fmt.Errorf("load facets: %w", err)
	}

	collections := cfg.FacetCollections
	if len(collections) == 0 {
		collections = source.Collections()
	}
	caches := make([]*vocabulary.Cache, 0, len(collections))
	for _, c := range collections {
		caches = append(caches, vocabulary.NewCache(c, source, vocabulary.Options{Logger: logger}))
	}

	p := &pipeline{rules: rules, vocabulary: vocabulary.NewMerged(rules.KnownTerms, caches...)}
	p.terms = unknownterms.New(unknownterms.Options{Source: "cli", Logger: logger})
	p.normalizer = nlu.NewNormalizer(rules, nlu.WithUnknownTermSink(p.terms), nlu.WithLogger(logger))

	clarifier := usecase.NewClarifier(memory.NewRetryStore(0, 0), cfg.AccountRetryMax, logger)
	p.understand = usecase.NewUnderstandUseCase(
		p.normalizer,
		nlu.NewMatcher(rules),
		nlu.NewAccountExtractor(rules),
		keyword.NewDefault(),
		p.vocabulary,
		usecase.NewResolver(clarifier, logger),
		usecase.NewCompiler(cfg.OrderFacetFields...),
		logger,
	)
	return p, nil
}

func (p *pipeline) Close() {
	p.terms.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
