package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
)

const classifyOperation = "ollama.classify"

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithExecutor(exec *resilience.Executor) ClientOption {
	return func(c *Client) { c.executor = exec }
}

func New(baseURL, model string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FailureObserver is told about each classification that fell back to the
// unknown sentinel.
type FailureObserver func(reason string)

// Classifier asks the model for a label from a closed set. It never fails:
// transport errors, malformed output and labels outside the set all become
// domain.UnknownPrediction.
type Classifier struct {
	client    *Client
	labels    []string
	allowed   map[domain.Intent]struct{}
	logger    *slog.Logger
	onFailure FailureObserver
}

type ClassifierOption func(*Classifier)

func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithFailureObserver(fn FailureObserver) ClassifierOption {
	return func(c *Classifier) { c.onFailure = fn }
}

func NewClassifier(client *Client, labels []string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		client:  client,
		allowed: make(map[domain.Intent]struct{}, len(labels)),
		logger:  slog.Default(),
	}
	for _, l := range labels {
		l = strings.TrimSpace(strings.ToLower(l))
		if l == "" {
			continue
		}
		if _, dup := c.allowed[domain.Intent(l)]; dup {
			continue
		}
		c.allowed[domain.Intent(l)] = struct{}{}
		c.labels = append(c.labels, l)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) Classify(ctx context.Context, text string) domain.Prediction {
	if strings.TrimSpace(text) == "" || len(c.labels) == 0 {
		return domain.UnknownPrediction()
	}

	respText, err := c.client.generateJSON(ctx, buildIntentPrompt(text, c.labels))
	if err != nil {
		c.fail("request", err)
		return domain.UnknownPrediction()
	}

	var result classification
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		c.fail("decode", fmt.Errorf("parse intent json: %w", err))
		return domain.UnknownPrediction()
	}

	intent := domain.Intent(strings.TrimSpace(strings.ToLower(result.Intent)))
	if _, ok := c.allowed[intent]; !ok {
		c.fail("label", fmt.Errorf("label %q outside configured set", result.Intent))
		return domain.UnknownPrediction()
	}
	return domain.Prediction{Intent: intent, Confidence: clampConfidence(result.Confidence)}
}

func (c *Classifier) fail(reason string, err error) {
	c.logger.Warn("intent_classification_failed", "reason", reason, "error", err)
	if c.onFailure != nil {
		c.onFailure(reason)
	}
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	}

	call := func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Response), nil
	}

	if c.executor == nil {
		return call(ctx)
	}
	out, err := resilience.Do(ctx, c.executor, classifyOperation, call, resilience.ClassifyHTTPError)
	if err != nil {
		return "", resilience.WrapTemporary(classifyOperation, err, resilience.ClassifyHTTPError)
	}
	return out, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
