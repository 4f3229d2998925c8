package azuresafety

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardenio/warden/internal/provider"
)

func TestAnalyze(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/contentsafety/text:analyze" {
			t.Errorf("path = %s, want /contentsafety/text:analyze", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != apiVersion {
			t.Errorf("api-version = %s, want %s", got, apiVersion)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "some text" {
			t.Errorf("text = %q, want %q", req.Text, "some text")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"categoriesAnalysis":[
			{"category":"Hate","severity":4},
			{"category":"Violence","severity":0},
			{"category":"SelfHarm","severity":0},
			{"category":"Sexual","severity":0}
		]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, nil, 0)
	v, err := client.Analyze(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !v.Flagged {
		t.Error("severity 4 with default threshold should be flagged")
	}
	if v.Scores["Hate"] != 4 {
		t.Errorf("Hate score = %v, want 4", v.Scores["Hate"])
	}
	if len(v.Scores) != 4 {
		t.Errorf("got %d scores, want 4", len(v.Scores))
	}
}

func TestAnalyzeBelowThreshold(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"categoriesAnalysis":[{"category":"Hate","severity":2}]}`)
	}))
	defer srv.Close()

	// Threshold above the returned severity.
	client := New(srv.URL, nil, 4)
	v, err := client.Analyze(context.Background(), "mild text")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if v.Flagged {
		t.Error("severity 2 with threshold 4 should not be flagged")
	}
}

func TestAnalyzeHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"InvalidRequestBody"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(srv.URL, nil, 0)
	_, err := client.Analyze(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *provider.APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"categoriesAnalysis":[]}`)
	}))
	defer srv.Close()

	client := New(srv.URL, nil, 0)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
