package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
)

var testLabels = []string{"view_orders", "view_all_orders", "search_by_brand", "unknown"}

func newModelServer(t *testing.T, status int, response string, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capture != nil {
			*capture, _ = payload["prompt"].(string)
		}
		if status != http.StatusOK {
			http.Error(w, "model unavailable", status)
			return
		}
		body, _ := json.Marshal(map[string]string{"response": response})
		_, _ = w.Write(body)
	}))
}

func TestClassifyReturnsLabelFromSet(t *testing.T) {
	var prompt string
	server := newModelServer(t, http.StatusOK, "Sure: {\"intent\":\"View_Orders\",\"confidence\":0.91}", &prompt)
	defer server.Close()

	c := NewClassifier(New(server.URL, "llama"), testLabels)
	got := c.Classify(context.Background(), "orders for acc 1027")
	if got.Intent != domain.IntentViewOrders || got.Confidence != 0.91 {
		t.Fatalf("unexpected prediction %+v", got)
	}
	if !strings.Contains(prompt, "orders for acc 1027") || !strings.Contains(prompt, "view_all_orders") {
		t.Fatalf("prompt missing text or labels: %s", prompt)
	}
}

func TestClassifyRejectsLabelOutsideSet(t *testing.T) {
	server := newModelServer(t, http.StatusOK, `{"intent":"delete_account","confidence":0.99}`, nil)
	defer server.Close()

	var reasons []string
	c := NewClassifier(New(server.URL, "llama"), testLabels, WithFailureObserver(func(r string) {
		reasons = append(reasons, r)
	}))
	got := c.Classify(context.Background(), "delete my account")
	if got != domain.UnknownPrediction() {
		t.Fatalf("expected unknown sentinel, got %+v", got)
	}
	if len(reasons) != 1 || reasons[0] != "label" {
		t.Fatalf("unexpected failure reasons %v", reasons)
	}
}

func TestClassifyFallsBackOnMalformedJSON(t *testing.T) {
	server := newModelServer(t, http.StatusOK, "not json at all", nil)
	defer server.Close()

	c := NewClassifier(New(server.URL, "llama"), testLabels)
	if got := c.Classify(context.Background(), "bosch drills"); got != domain.UnknownPrediction() {
		t.Fatalf("expected unknown sentinel, got %+v", got)
	}
}

func TestClassifyRetriesThenFallsBackOnServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	c := NewClassifier(New(server.URL, "llama", WithExecutor(exec)), testLabels)
	if got := c.Classify(context.Background(), "bosch drills"); got != domain.UnknownPrediction() {
		t.Fatalf("expected unknown sentinel, got %+v", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := newModelServer(t, http.StatusBadRequest, "", nil)
	defer server.Close()

	_, err := New(server.URL, "llama").generateJSON(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	server := newModelServer(t, http.StatusOK, `{"intent":"search_by_brand","confidence":7}`, nil)
	defer server.Close()

	got := NewClassifier(New(server.URL, "llama"), testLabels).Classify(context.Background(), "bosch")
	if got.Confidence != 1 {
		t.Fatalf("expected clamped confidence, got %v", got.Confidence)
	}
}
