package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
	"github.com/kirillkom/catalog-nlq/internal/observability/metrics"
)

const maxBodyBytes = 64 << 10

type Options struct {
	ServiceName          string
	TrustPrivilegeHeader bool
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxInFlight          int
	InFlightWait         time.Duration
	Metrics              *metrics.HTTPServerMetrics
}

type Router struct {
	understand ports.QueryUnderstander
	vocab      ports.VocabularyAdmin
	opts       Options
}

func NewRouter(understand ports.QueryUnderstander, vocab ports.VocabularyAdmin, opts Options) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "nlq-api"
	}
	return &Router{understand: understand, vocab: vocab, opts: opts}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/orders/query", rt.queryOrders)
	mux.HandleFunc("/v1/products/query", rt.queryProducts)
	mux.HandleFunc("/v1/vocabulary/refresh", rt.refreshVocabulary)
	mux.HandleFunc("/v1/vocabulary/unknown-terms", rt.unknownTerms)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}

	var h http.Handler = mux
	if rt.opts.MaxInFlight > 0 {
		h = backpressureMiddleware(h, rt.opts.MaxInFlight, rt.opts.InFlightWait)
	}
	if rt.opts.RateLimitRPS > 0 {
		h = rateLimitMiddleware(h, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, rt.onRateLimited)
	}
	if rt.opts.Metrics != nil {
		h = rt.opts.Metrics.Middleware(rt.opts.ServiceName, h)
	}
	return requestIDMiddleware(accessLogMiddleware(h))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type orderRequest struct {
	Query string `json:"query"`
}

type productRequest struct {
	Query   string              `json:"query"`
	Filters map[string][]string `json:"filters"`
}

// understandingResponse adds the rendered filter queries next to the
// structured terms.
type understandingResponse struct {
	*domain.Understanding
	FilterQueries []string `json:"fq"`
}

func (rt *Router) queryOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	out, err := rt.understand.UnderstandOrders(r.Context(), domain.OrderQuery{
		Text:   req.Query,
		Caller: callerFromRequest(r, rt.opts.TrustPrivilegeHeader),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rt.record(out, time.Since(start))

	if out.Clarification != nil {
		writeJSON(w, http.StatusOK, out.Clarification)
		return
	}
	writeJSON(w, http.StatusOK, understandingResponse{Understanding: out, FilterQueries: out.Filters.Strings()})
}

func (rt *Router) queryProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	out, err := rt.understand.UnderstandCatalog(r.Context(), domain.CatalogQuery{
		Text:    req.Query,
		Caller:  callerFromRequest(r, rt.opts.TrustPrivilegeHeader),
		Filters: req.Filters,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rt.record(out, time.Since(start))
	writeJSON(w, http.StatusOK, understandingResponse{Understanding: out, FilterQueries: out.Filters.Strings()})
}

func (rt *Router) refreshVocabulary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	counts, err := rt.vocab.RefreshVocabulary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "refreshed", "fields": counts})
}

func (rt *Router) unknownTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	terms, err := rt.vocab.UnknownTerms(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if terms == nil {
		terms = []domain.UnknownTermStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func (rt *Router) record(u *domain.Understanding, took time.Duration) {
	if rt.opts.Metrics == nil {
		return
	}
	kind := ""
	if u.Clarification != nil {
		kind = string(u.Clarification.Kind)
	}
	rt.opts.Metrics.RecordUnderstanding(rt.opts.ServiceName, string(u.Scope), string(u.Intent), kind, took)
}

func (rt *Router) onRateLimited(r *http.Request) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordRateLimited(rt.opts.ServiceName, r.URL.Path)
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
