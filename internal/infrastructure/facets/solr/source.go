// Package solr reads facet vocabularies from a Solr collection: the schema
// lists the fields, a zero-row facet query lists their values.
package solr

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
	// InsecureSkipVerify accepts self-signed certificates on dev clusters.
	InsecureSkipVerify bool
}

type Source struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &Source{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		executor:   executor,
	}
}

func (s *Source) FetchFacets(ctx context.Context, collection string) (domain.Vocabulary, error) {
	op := "solr.facets." + collection
	fetch := func(ctx context.Context) (domain.Vocabulary, error) {
		fields, err := s.schemaFields(ctx, collection)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return domain.Vocabulary{}, nil
		}
		return s.facetValues(ctx, collection, fields)
	}

	if s.executor == nil {
		v, err := fetch(ctx)
		return v, resilience.WrapTemporary(op, err, resilience.ClassifyHTTPError)
	}
	v, err := resilience.Do(ctx, s.executor, op, fetch, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporary(op, err, resilience.ClassifyHTTPError)
	}
	return v, nil
}

func (s *Source) schemaFields(ctx context.Context, collection string) ([]string, error) {
	var resp struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := s.getJSON(ctx, collection+"/schema/fields", nil, &resp, "schema"); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		if f.Name == "" || strings.HasPrefix(f.Name, "_") {
			continue
		}
		out = append(out, f.Name)
	}
	return out, nil
}

func (s *Source) facetValues(ctx context.Context, collection string, fields []string) (domain.Vocabulary, error) {
	params := url.Values{}
	params.Set("q", "*:*")
	params.Set("rows", "0")
	params.Set("facet", "true")
	params.Set("facet.limit", "-1")
	params.Set("facet.mincount", "1")
	params.Set("wt", "json")
	for _, f := range fields {
		params.Add("facet.field", f)
	}

	var resp struct {
		FacetCounts struct {
			FacetFields map[string][]json.RawMessage `json:"facet_fields"`
		} `json:"facet_counts"`
	}
	if err := s.getJSON(ctx, collection+"/select", params, &resp, "select"); err != nil {
		return nil, err
	}

	out := domain.Vocabulary{}
	for field, pairs := range resp.FacetCounts.FacetFields {
		values := make([]string, 0, len(pairs)/2)
		// Solr returns [value, count, value, count, ...].
		for i := 0; i < len(pairs); i += 2 {
			if v := facetValue(pairs[i]); v != "" {
				values = append(values, v)
			}
		}
		if values = domain.Dedup(values); len(values) > 0 {
			out[field] = values
		}
	}
	return out, nil
}

func facetValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func (s *Source) getJSON(ctx context.Context, path string, params url.Values, out any, operation string) error {
	target := s.baseURL + "/" + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.user != "" {
		req.SetBasicAuth(s.user, s.password)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("solr %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewHTTPStatusError("solr", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
