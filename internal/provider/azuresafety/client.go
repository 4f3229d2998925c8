// Package azuresafety implements the warden.ContentSafety adapter for the
// Azure AI Content Safety text-analysis API.
package azuresafety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/provider"
)

const (
	providerType = "azure"
	apiVersion   = "2024-09-01"

	// defaultThreshold is the minimum severity (0-7 scale with
	// FourSeverityLevels output: 0, 2, 4, 6) that flags a verdict.
	defaultThreshold = 2
)

var _ warden.ContentSafety = (*Client)(nil)

// Client is an Azure Content Safety adapter that implements
// warden.ContentSafety.
type Client struct {
	baseURL   string
	http      *http.Client
	threshold float64
}

// New creates an Azure Content Safety client. baseURL is the resource
// endpoint (e.g. "https://myresource.cognitiveservices.azure.com"). The
// provided client should have auth configured via its transport chain.
// threshold <= 0 selects the default severity threshold.
func New(baseURL string, client *http.Client, threshold float64) *Client {
	if client == nil {
		client = &http.Client{}
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      client,
		threshold: threshold,
	}
}

// Category returns warden.CategoryContentSafety.
func (c *Client) Category() warden.Category { return warden.CategoryContentSafety }

// Type returns the implementation identifier.
func (c *Client) Type() string { return providerType }

// analyzeRequest is the text:analyze request body.
type analyzeRequest struct {
	Text       string `json:"text"`
	OutputType string `json:"outputType"`
}

// Analyze sends the text to the text:analyze endpoint and maps per-category
// severities to a verdict. The verdict is flagged when any category reaches
// the configured severity threshold.
func (c *Client) Analyze(ctx context.Context, text string) (*warden.SafetyVerdict, error) {
	body, err := json.Marshal(analyzeRequest{Text: text, OutputType: "FourSeverityLevels"})
	if err != nil {
		return nil, fmt.Errorf("azuresafety: marshal request: %w", err)
	}

	url := c.baseURL + "/contentsafety/text:analyze?api-version=" + apiVersion
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("azuresafety: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("azuresafety: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ParseAPIError(providerType, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azuresafety: read response: %w", err)
	}

	verdict := &warden.SafetyVerdict{Scores: make(map[string]float64)}
	for _, r := range gjson.GetBytes(raw, "categoriesAnalysis").Array() {
		category := r.Get("category").String()
		severity := r.Get("severity").Float()
		verdict.Scores[category] = severity
		if severity >= c.threshold {
			verdict.Flagged = true
		}
	}
	return verdict, nil
}

// HealthCheck verifies connectivity by analyzing a short probe text.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Analyze(ctx, "ping")
	return err
}
