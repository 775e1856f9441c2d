package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/rootcause"
)

func testEvidence() rootcause.Evidence {
	return rootcause.Evidence{
		Equipment: &equipment.Info{ID: "eq-1", Name: "Feed pump", Tag: "P-101", Type: equipment.TypePump},
		Patterns: []rootcause.FailurePattern{
			{Description: "Seal leakage detected", Occurrences: 3, AverageIntervalHours: 72, PredominantGravity: "P2"},
		},
		Causes: []rootcause.Cause{
			{Description: "Recurring failure requiring CORRECTIVE maintenance", Confidence: 0.7, Evidence: "3 correlated maintenance interventions"},
		},
	}
}

func TestSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"Likely seal wear driven by cavitation."}]}`))
	}))
	defer server.Close()

	a := NewAnthropic("test-key", "")
	a.baseURL = server.URL

	narrative, err := a.Summarize(context.Background(), testEvidence())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if narrative != "Likely seal wear driven by cavitation." {
		t.Errorf("narrative = %q", narrative)
	}
}

func TestSummarizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))
	defer server.Close()

	a := NewAnthropic("test-key", "")
	a.baseURL = server.URL

	if _, err := a.Summarize(context.Background(), testEvidence()); err == nil {
		t.Fatal("expected error from API error response")
	}
}

func TestSummarizeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	a := NewAnthropic("test-key", "")
	a.baseURL = server.URL

	if _, err := a.Summarize(context.Background(), testEvidence()); err == nil {
		t.Fatal("expected error from malformed response")
	}
}

func TestSummarizeWithoutKey(t *testing.T) {
	a := NewAnthropic("", "")
	if _, err := a.Summarize(context.Background(), testEvidence()); err == nil {
		t.Fatal("expected error without api key")
	}
}
